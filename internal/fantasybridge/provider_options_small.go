//go:build modelkit_small

package fantasybridge

import (
	"charm.land/fantasy"
	"github.com/dotcommander/modelkit/internal/proto"
)

func applyProviderOptions(call *fantasy.Call, _ string, _ Config, req proto.Request) {
	if req.User != "" {
		compatUser(call, req.User)
	}
}

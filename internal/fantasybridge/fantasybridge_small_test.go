//go:build modelkit_small

package fantasybridge

import (
	"testing"

	fopenaicompat "charm.land/fantasy/providers/openaicompat"
	"github.com/dotcommander/modelkit/internal/proto"
	"github.com/stretchr/testify/require"
)

func TestBuildCallUserProviderOptionsSmallBuild(t *testing.T) {
	s := &Stream{api: "openai", request: proto.Request{User: "alice"}}

	call := s.buildCall()
	v, ok := call.ProviderOptions[fopenaicompat.Name]
	require.True(t, ok)
	opts, ok := v.(*fopenaicompat.ProviderOptions)
	require.True(t, ok)
	require.Equal(t, "alice", *opts.User)
}

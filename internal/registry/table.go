package registry

import (
	"slices"
	"strings"

	"github.com/dotcommander/modelkit/internal/config"
	"github.com/dotcommander/modelkit/internal/stubmodel"
)

// testTable returns stub bindings for the built-in keys, with the same kinds
// and capabilities as the default live table.
func testTable(tag string) []*Binding {
	chat := func(key Key, c *stubmodel.Model, capability Capability) *Binding {
		return &Binding{Key: key, Kind: KindChat, Capability: capability, API: "test", Model: c.Name, chat: c}
	}
	image := stubmodel.ImageModel()
	return []*Binding{
		chat(ChatModel, stubmodel.ChatModel(), Plain),
		chat(ChatModelReasoning, stubmodel.ReasoningModel(tag), Reasoning),
		chat(TitleModel, stubmodel.TitleModel(), Plain),
		chat(ArtifactModel, stubmodel.ArtifactModel(), Plain),
		{Key: SmallModel, Kind: KindImage, API: "test", Model: image.Name, image: image},
	}
}

// Entry describes one binding of a table.
type Entry struct {
	Key        Key
	Kind       Kind
	Capability Capability
	API        string
	Model      string
	Fallback   Key
}

// Entries describes the table cfg selects, sorted by key, without building
// any provider client.
func Entries(cfg *config.Config) ([]Entry, error) {
	var entries []Entry
	if cfg.Test {
		for _, b := range testTable(cfg.ReasoningTag) {
			entries = append(entries, Entry{Key: b.Key, Kind: b.Kind, Capability: b.Capability, API: b.API, Model: b.Model})
		}
	} else {
		if err := cfg.Validate(); err != nil {
			return nil, err //nolint:wrapcheck
		}
		for _, m := range cfg.Models {
			e := Entry{Key: Key(m.Key), API: m.API, Model: m.Name, Fallback: Key(m.Fallback)}
			if m.KindOrDefault() == config.KindImage {
				e.Kind = KindImage
			}
			if m.CapabilityOrDefault() == config.CapabilityReasoning {
				e.Capability = Reasoning
			}
			entries = append(entries, e)
		}
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(string(a.Key), string(b.Key))
	})
	return entries, nil
}

package traitca

import "strconv"

// SemanticChannelNames labels the nine default channels.
var SemanticChannelNames = []string{
	"Energy",
	"Confidence",
	"Cooperation",
	"Aggression",
	"Stability",
	"Mobility",
	"Resource",
	"Age",
	"Adaptability",
}

// DefaultChannelNames returns n labels: the semantic names while they last,
// then "Trait <i>".
func DefaultChannelNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		if i < len(SemanticChannelNames) {
			out[i] = SemanticChannelNames[i]
			continue
		}
		out[i] = "Trait " + strconv.Itoa(i)
	}
	return out
}

func channelNames(cfg Config) []string {
	names := DefaultChannelNames(cfg.Channels)
	for i, name := range cfg.ChannelNames {
		if i < len(names) && name != "" {
			names[i] = name
		}
	}
	return names
}

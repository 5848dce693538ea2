package normalizer

import "encoding/json"

// detectProbe is the minimal shape needed to tell raw ESP output from
// raw SAGE output without a caller-supplied source tag.
type detectProbe struct {
	SourcePlatform *string `json:"source_platform"`
	PresID         *string `json:"pres_id"`
	Presenter      *struct {
		Phone *string `json:"phone"`
	} `json:"presenter"`
	Metadata struct {
		SourceType *string         `json:"source_type"`
		TotalItems json.RawMessage `json:"total_items_in_presentation"`
	} `json:"metadata"`
	Products []struct {
		Identifiers struct {
			SPC *string `json:"spc"`
		} `json:"identifiers"`
		SPC  *string `json:"spc"`
		Item struct {
			CPN *string `json:"cpn"`
		} `json:"item"`
	} `json:"products"`
}

// DetectSource infers whether raw output came from the ESP or SAGE
// pipeline. Markers are checked in order of reliability; when nothing
// matches, ESP is assumed since it is the dominant source.
func DetectSource(raw json.RawMessage) string {
	var probe detectProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return SourceESP
	}

	if probe.SourcePlatform != nil && *probe.SourcePlatform == SourceSAGE {
		return SourceSAGE
	}
	if probe.PresID != nil {
		return SourceSAGE
	}
	// ESP presenter contact comes through the presentation header and
	// never carries a direct phone; SAGE's always can.
	if probe.Presenter != nil && probe.Presenter.Phone != nil {
		return SourceSAGE
	}

	if probe.Metadata.SourceType != nil && *probe.Metadata.SourceType == SourceESP {
		return SourceESP
	}
	if len(probe.Metadata.TotalItems) > 0 {
		return SourceESP
	}

	if len(probe.Products) > 0 {
		first := probe.Products[0]
		if first.Identifiers.SPC != nil || first.SPC != nil {
			return SourceSAGE
		}
		if first.Item.CPN != nil {
			return SourceESP
		}
	}

	return SourceESP
}

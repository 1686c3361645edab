package compose

import (
	"context"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Document Self-Check
// =============================================================================

// Check round-trips the synthesized document through the reference compose
// loader, catching structural mistakes (bad depends_on targets, malformed
// healthchecks, undeclared networks) before anything is written to disk.
func Check(doc *Document) error {
	raw, err := doc.Marshal()
	if err != nil {
		return newSynthesisError("", "", "cannot serialize document", ErrInvalidDocument)
	}

	var dict map[string]interface{}
	if err := yaml.Unmarshal(raw, &dict); err != nil {
		return newSynthesisError("", "", "serialized document is not valid YAML", ErrInvalidDocument)
	}

	_, err = loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Content: raw,
				Config:  dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName("labctl", false)
		opts.SkipValidation = false
		// Generated secrets may contain $-adjacent characters; the document
		// carries final values, nothing left to interpolate.
		opts.SkipInterpolation = true
		opts.SkipNormalization = true
		opts.SkipExtends = true
	})
	if err != nil {
		return newSynthesisError("", "", err.Error(), ErrInvalidDocument)
	}
	return nil
}

// Package blueprint decodes Contract and Plan documents. YAML and JSON are
// both accepted; file_structure mappings keep their document order.
package blueprint

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

// ErrMalformed wraps every decoding and shape failure.
var ErrMalformed = errors.New("malformed document")

var validate = validator.New()

// LoadContract reads and decodes a contract file.
func LoadContract(path string) (types.Contract, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.Contract{}, fmt.Errorf("read contract: %w", err)
	}
	return DecodeContract(raw)
}

func DecodeContract(raw []byte) (types.Contract, error) {
	var c types.Contract
	if err := decodeStrict(raw, &c); err != nil {
		return types.Contract{}, fmt.Errorf("%w: contract: %v", ErrMalformed, err)
	}
	if err := validate.Struct(c); err != nil {
		return types.Contract{}, fmt.Errorf("%w: contract: %v", ErrMalformed, err)
	}
	return c, nil
}

// LoadPlan reads and decodes a plan file.
func LoadPlan(path string) (types.Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.Plan{}, fmt.Errorf("read plan: %w", err)
	}
	return DecodePlan(raw)
}

// DecodePlan accepts either {files: [...]} or a bare list of planned files.
func DecodePlan(raw []byte) (types.Plan, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return types.Plan{}, fmt.Errorf("%w: plan: %v", ErrMalformed, err)
	}
	var p types.Plan
	if len(root.Content) > 0 && root.Content[0].Kind == yaml.SequenceNode {
		if err := root.Content[0].Decode(&p.Files); err != nil {
			return types.Plan{}, fmt.Errorf("%w: plan: %v", ErrMalformed, err)
		}
	} else if err := decodeStrict(raw, &p); err != nil {
		return types.Plan{}, fmt.Errorf("%w: plan: %v", ErrMalformed, err)
	}
	if err := validate.Struct(p); err != nil {
		return types.Plan{}, fmt.Errorf("%w: plan: %v", ErrMalformed, err)
	}
	return p, nil
}

// decodeStrict rejects unknown top-level keys so that typos surface as
// errors instead of silently empty sections.
func decodeStrict(raw []byte, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return errors.New("empty document")
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(out)
}

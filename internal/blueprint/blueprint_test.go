package blueprint

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

const contractYAML = `
api_endpoints:
  - path: /api/v1/members
    methods: [GET, POST]
    request_schema: MemberCreate
    response_schema: Member
data_models:
  - name: Member
    fields:
      - id
      - name: email
        type: str
  - name: MemberCreate
    fields: [email]
file_structure:
  views directory: frontend/src/views
  api routes: backend/app/routes
  entry module: backend/app/main.py
`

func TestDecodeContract_YAMLKeepsRoleOrder(t *testing.T) {
	c, err := DecodeContract([]byte(contractYAML))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := types.FileStructure{
		{Role: "views directory", Path: "frontend/src/views"},
		{Role: "api routes", Path: "backend/app/routes"},
		{Role: "entry module", Path: "backend/app/main.py"},
	}
	if !reflect.DeepEqual(c.FileStructure, want) {
		t.Fatalf("file_structure mismatch\n got: %#v\nwant: %#v", c.FileStructure, want)
	}
	if len(c.APIEndpoints) != 1 || c.APIEndpoints[0].ResponseSchema != "Member" {
		t.Fatalf("endpoints mismatch: %#v", c.APIEndpoints)
	}
	wantFields := []types.Field{{Name: "id"}, {Name: "email", Type: "str"}}
	if !reflect.DeepEqual(c.DataModels[0].Fields, wantFields) {
		t.Fatalf("fields mismatch: %#v", c.DataModels[0].Fields)
	}
}

func TestDecodeContract_JSON(t *testing.T) {
	raw := `{
  "api_endpoints": [{"path": "/api/v1/projects/{id}", "methods": ["GET"], "response_schema": "Project"}],
  "data_models": [{"name": "Project", "fields": [{"name": "id", "type": "int"}]}],
  "file_structure": {"views": "frontend/src/views", "api": "backend/app/api"}
}`
	c, err := DecodeContract([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(c.FileStructure) != 2 || c.FileStructure[0].Role != "views" || c.FileStructure[1].Role != "api" {
		t.Fatalf("file_structure order not kept: %#v", c.FileStructure)
	}
}

func TestDecodeContract_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"syntax":         "api_endpoints: [",
		"unknown key":    "api_endpoint:\n  - path: /x\n",
		"missing path":   "api_endpoints:\n  - methods: [GET]\n",
		"unnamed model":  "data_models:\n  - fields: [id]\n",
		"bad structure":  "file_structure: 42\n",
		"role with path": "file_structure:\n  - role: views\n",
	}
	for name, raw := range cases {
		if _, err := DecodeContract([]byte(raw)); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: expected ErrMalformed, got %v", name, err)
		}
	}
}

func TestDecodePlan(t *testing.T) {
	wrapped := `
files:
  - path: frontend/src/views/Home.vue
    dependencies: [./Profile.vue, vue]
  - path: frontend/src/views/Profile.vue
`
	bare := `
- path: frontend/src/views/Home.vue
  dependencies: [./Profile.vue, vue]
- path: frontend/src/views/Profile.vue
`
	want := types.Plan{Files: []types.PlannedFile{
		{Path: "frontend/src/views/Home.vue", Dependencies: []string{"./Profile.vue", "vue"}},
		{Path: "frontend/src/views/Profile.vue"},
	}}
	for name, raw := range map[string]string{"wrapped": wrapped, "bare": bare} {
		p, err := DecodePlan([]byte(raw))
		if err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if !reflect.DeepEqual(p, want) {
			t.Fatalf("%s: plan mismatch\n got: %#v\nwant: %#v", name, p, want)
		}
	}

	if _, err := DecodePlan([]byte("- dependencies: [x]\n")); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for a file without a path, got %v", err)
	}
}

func TestLoadContract_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contract.yaml")
	if err := os.WriteFile(path, []byte(contractYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadContract(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := LoadContract(filepath.Join(dir, "missing.yaml")); err == nil || errors.Is(err, ErrMalformed) {
		t.Fatalf("missing file should be an I/O error, got %v", err)
	}
}

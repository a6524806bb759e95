package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

func memberContract() types.Contract {
	return types.Contract{
		APIEndpoints: []types.Endpoint{
			{Path: "/api/v1/members", Methods: []string{"GET", "POST"}, RequestSchema: "MemberCreate", ResponseSchema: "Member"},
			{Path: "/api/v1/projects/{id}", Methods: []string{"GET"}, ResponseSchema: "Project"},
			{Path: "/api/v1/task-boards/:boardId", Methods: []string{"GET"}},
		},
		DataModels: []types.DataModel{
			{Name: "Member", Fields: []types.Field{{Name: "id", Type: "int"}, {Name: "name", Type: "str"}}},
			{Name: "MemberCreate", Fields: []types.Field{{Name: "name", Type: "str"}}},
			{Name: "Project"},
		},
		FileStructure: types.FileStructure{
			{Role: "views directory", Path: "frontend/src/views"},
			{Role: "api routes", Path: "backend/app/endpoints_v1"},
			{Role: "entry module", Path: "backend/app/main.py"},
		},
	}
}

func TestValidateInternalConsistency_DefinedModels(t *testing.T) {
	c := types.Contract{
		APIEndpoints: []types.Endpoint{{Path: "/api/v1/members", ResponseSchema: "Member"}},
		DataModels:   []types.DataModel{{Name: "Member"}},
	}
	assert.Empty(t, ValidateInternalConsistency(c))
}

func TestValidateInternalConsistency_UndefinedModels(t *testing.T) {
	c := memberContract()
	c.APIEndpoints = append(c.APIEndpoints,
		types.Endpoint{Path: "/api/v1/tasks", RequestSchema: "TaskIn", ResponseSchema: "TaskIn"},
		types.Endpoint{Path: "/api/v1/teams", ResponseSchema: "Team"},
	)

	issues := ValidateInternalConsistency(c)
	require.Len(t, issues, 2)
	assert.Equal(t, types.SeverityError, issues[0].Severity)
	assert.Equal(t, types.CategoryUndefinedModelReference, issues[0].Category)
	assert.Equal(t, "TaskIn", issues[0].Target)
	assert.Contains(t, issues[0].Message, "/api/v1/tasks")
	assert.Equal(t, "Team", issues[1].Target)
	assert.Contains(t, issues[1].Message, "/api/v1/teams")
}

func TestValidateAgainstBlueprint(t *testing.T) {
	planned := []string{
		"frontend/src/views/Home.vue",
		"backend/app/main.py",
		"backend/app/endpoints_v1_legacy/old.py",
	}
	issues := ValidateAgainstBlueprint(memberContract(), planned)
	require.Len(t, issues, 1)
	assert.Equal(t, types.SeverityWarning, issues[0].Severity)
	assert.Equal(t, types.CategoryStructureMismatch, issues[0].Category)
	assert.Equal(t, "backend/app/endpoints_v1", issues[0].Target)
}

func TestValidateImplementation_Compliance(t *testing.T) {
	reg := newRegistry()
	reg.Register("backend/app/routes/members.py", "", "", "", nil)
	reg.Register("backend/app/api/Projects-Router.py", "", "", "", nil)
	reg.Register("backend/app/models/task_board.py", "", "", "", nil)

	issues := ValidateImplementation(memberContract(), reg)
	require.Len(t, issues, 1)
	assert.Equal(t, types.SeverityWarning, issues[0].Severity)
	assert.Equal(t, types.CategoryMissingImplementation, issues[0].Category)
	assert.Equal(t, "/api/v1/task-boards/:boardId", issues[0].Target)
}

func TestValidateImplementation_HandlerRole(t *testing.T) {
	reg := newRegistry()
	reg.Register("backend/app/endpoints_v1/task_boards.py", "", "", "", nil)

	c := types.Contract{
		APIEndpoints:  []types.Endpoint{{Path: "/api/v1/task-boards/{id}"}},
		FileStructure: types.FileStructure{{Role: "API handlers", Path: "backend/app/endpoints_v1"}},
	}
	assert.Empty(t, ValidateImplementation(c, reg))

	c.FileStructure = nil
	assert.Len(t, ValidateImplementation(c, reg), 1, "outside a handler role the file is not a handler")
}

func TestEndpointKey(t *testing.T) {
	cases := map[string]string{
		"/api/v1/members":           "members",
		"/api/v1/members/{id}":      "members",
		"/api/v1/task-boards/:id":   "task_boards",
		"/api/v1/Task__Boards/<id>": "task_boards",
		"/users/[userId]/settings/": "settings",
		"/":                         "",
	}
	for in, want := range cases {
		if got := endpointKey(in); got != want {
			t.Fatalf("endpointKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOverall(t *testing.T) {
	reg := newRegistry()
	reg.Register("frontend/src/views/Home.vue", "", "", "", nil)
	reg.Register("backend/app/endpoints_v1/members.py", "", "", "", nil)
	planned := reg.Paths()

	ok, issues := Overall(memberContract(), reg, planned)
	assert.True(t, ok, "warnings never block")
	require.NotEmpty(t, issues)
	for _, is := range issues {
		assert.NotEqual(t, types.SeverityError, is.Severity)
	}

	broken := memberContract()
	broken.DataModels = broken.DataModels[:1]
	ok, issues = Overall(broken, reg, planned)
	assert.False(t, ok)
	assert.True(t, types.HasBlocking(issues))
}

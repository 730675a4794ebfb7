package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Predicates(t *testing.T) {
	tests := []struct {
		role       Role
		valid      bool
		director   bool
		manager    bool
		management bool
		label      string
	}{
		{RoleDirector, true, true, false, true, "director"},
		{RoleManager, true, false, true, true, "manager"},
		{RoleUser, true, false, false, false, "employee"},
		{Role("intern"), false, false, false, false, "employee"},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.role.Valid())
			assert.Equal(t, tt.director, tt.role.IsDirector())
			assert.Equal(t, tt.manager, tt.role.IsManager())
			assert.Equal(t, tt.management, tt.role.IsManagerOrDirector())
			assert.Equal(t, tt.management, tt.role.HasManagementPermission())
			assert.Equal(t, tt.label, tt.role.Label())
		})
	}
}

func TestProjectInput_OmitsUnsetFields(t *testing.T) {
	status := ProjectInProgress
	raw, err := json.Marshal(ProjectInput{Status: &status})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"in_progress"}`, string(raw))
}

func TestEntityIDs(t *testing.T) {
	entities := []Entity{User{ID: 1}, Project{ID: 2}, Task{ID: 3}}
	for i, e := range entities {
		assert.Equal(t, i+1, e.EntityID())
	}
}

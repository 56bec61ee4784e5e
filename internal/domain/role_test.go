package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoles(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want []Role
	}{
		{"nil", nil, []Role{}},
		{"native strings", []string{"teknisi", "pegawai"}, []Role{RolePegawai, RoleTeknisi}},
		{"decoded json any", []any{"super_admin", 7, "teknisi"}, []Role{RoleSuperAdmin, RoleTeknisi}},
		{"encoded string", `["admin_layanan"]`, []Role{RoleAdminLayanan}},
		{"double encoded", json.RawMessage(`"[\"admin_penyedia\",\"teknisi\"]"`), []Role{RoleAdminPenyedia, RoleTeknisi}},
		{"bare role", "pegawai", []Role{RolePegawai}},
		{"garbage", `{"roles":`, []Role{}},
		{"empty string", "", []Role{}},
		{"json null", []byte("null"), []Role{}},
		{"unsupported type", 42, []Role{}},
		{"blank entries dropped", []string{" ", "teknisi"}, []Role{RoleTeknisi}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseRoles(tc.raw).List())
		})
	}
}

func TestRoleQueries(t *testing.T) {
	set := NewRoleSet(RoleTeknisi, RolePegawai)

	assert.True(t, set.Has(RoleTeknisi))
	assert.False(t, set.Has(RoleSuperAdmin))
	assert.True(t, set.HasAny(RoleSuperAdmin, RoleTeknisi))
	assert.False(t, set.HasAny())
	assert.True(t, set.HasAll(RoleTeknisi, RolePegawai))
	assert.False(t, set.HasAll(RoleTeknisi, RoleAdminLayanan))
	assert.True(t, set.HasAll())
	assert.False(t, set.IsAdmin())
	assert.True(t, NewRoleSet(RoleAdminLayanan).IsAdmin())
}

func TestRoleSetJSON(t *testing.T) {
	var holder struct {
		Roles RoleSet `json:"roles"`
	}
	assert.NoError(t, json.Unmarshal([]byte(`{"roles":"[\"teknisi\"]"}`), &holder))
	assert.True(t, holder.Roles.Has(RoleTeknisi))

	out, err := json.Marshal(holder)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"roles":["teknisi"]}`, string(out))
}

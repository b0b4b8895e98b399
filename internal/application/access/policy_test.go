package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
)

func TestDefaultPolicy(t *testing.T) {
	p := access.DefaultPolicy()

	nurse := access.Actor{UserID: "u1", Role: access.RoleNurse}
	assert.True(t, p.Allows(nurse, access.CapRecordMovement))
	assert.True(t, p.Allows(nurse, access.CapReadInventory))
	assert.False(t, p.Allows(nurse, access.CapManageCatalog))
	assert.False(t, p.Allows(nurse, access.CapReconcile))

	auditor := access.Actor{UserID: "u2", Role: access.RoleAuditor}
	assert.True(t, p.Allows(auditor, access.CapReconcile))
	assert.False(t, p.Allows(auditor, access.CapRecordMovement))

	assert.True(t, p.Allows(access.System, access.CapManageCatalog))
}

func TestDefaultPolicy_SinUsuarioORolDesconocido(t *testing.T) {
	p := access.DefaultPolicy()
	assert.False(t, p.Allows(access.Actor{Role: access.RoleAdmin}, access.CapReadInventory))
	assert.False(t, p.Allows(access.Actor{UserID: "u", Role: "vendedor"}, access.CapReadInventory))
}

func TestKnownRole(t *testing.T) {
	for _, r := range access.Roles {
		assert.True(t, access.KnownRole(r), r)
		assert.True(t, access.DefaultPolicy().Allows(access.Actor{UserID: "u", Role: r}, access.CapReadInventory),
			"todo rol conocido puede leer inventario")
	}
	assert.False(t, access.KnownRole("Admin"))
	assert.False(t, access.KnownRole(""))
}

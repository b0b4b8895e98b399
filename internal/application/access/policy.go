// Package access modela la autorización como una política de capacidades inyectada en cada caso de uso.
// La identidad del actor la verifica el colaborador de autenticación (JWT); aquí solo se decide qué puede hacer.
package access

// Capability operación protegida del libro.
type Capability string

const (
	CapReadInventory  Capability = "inventory:read"
	CapManageCatalog  Capability = "catalog:manage"
	CapRecordMovement Capability = "movement:record"
	CapReconcile      Capability = "balance:reconcile"
	CapManageSupplier Capability = "supplier:manage"
)

// Roles conocidos emitidos por el colaborador de autenticación.
const (
	RoleAdmin            = "admin"
	RoleInventoryManager = "inventory_manager"
	RolePharmacist       = "pharmacist"
	RoleNurse            = "nurse"
	RoleAuditor          = "auditor"
	RoleViewer           = "viewer"
)

// Roles todos los roles conocidos, de mayor a menor alcance.
var Roles = []string{RoleAdmin, RoleInventoryManager, RolePharmacist, RoleNurse, RoleAuditor, RoleViewer}

// KnownRole indica si role es uno de Roles.
func KnownRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Actor identidad verificada que invoca una operación.
type Actor struct {
	UserID string
	Role   string
}

// System actor interno para procesos sin usuario (importaciones, tareas de mantenimiento).
var System = Actor{UserID: "system", Role: RoleAdmin}

// Policy decide si un actor tiene una capacidad.
type Policy interface {
	Allows(actor Actor, capability Capability) bool
}

// RolePolicy política basada en una tabla rol -> capacidades.
type RolePolicy struct {
	grants map[string]map[Capability]bool
}

// NewRolePolicy construye la política con la tabla indicada.
func NewRolePolicy(grants map[string][]Capability) *RolePolicy {
	p := &RolePolicy{grants: make(map[string]map[Capability]bool, len(grants))}
	for role, caps := range grants {
		set := make(map[Capability]bool, len(caps))
		for _, c := range caps {
			set[c] = true
		}
		p.grants[role] = set
	}
	return p
}

// DefaultPolicy tabla de roles por defecto del servicio.
func DefaultPolicy() *RolePolicy {
	return NewRolePolicy(map[string][]Capability{
		RoleAdmin:            {CapReadInventory, CapManageCatalog, CapRecordMovement, CapReconcile, CapManageSupplier},
		RoleInventoryManager: {CapReadInventory, CapManageCatalog, CapRecordMovement, CapReconcile, CapManageSupplier},
		RolePharmacist:       {CapReadInventory, CapRecordMovement},
		RoleNurse:            {CapReadInventory, CapRecordMovement},
		RoleAuditor:          {CapReadInventory, CapReconcile},
		RoleViewer:           {CapReadInventory},
	})
}

// Allows implementa Policy. Un actor sin usuario nunca tiene capacidades.
func (p *RolePolicy) Allows(actor Actor, capability Capability) bool {
	if actor.UserID == "" {
		return false
	}
	return p.grants[actor.Role][capability]
}

// AllowAll política permisiva para pruebas y herramientas locales.
type AllowAll struct{}

// Allows siempre true si hay usuario.
func (AllowAll) Allows(actor Actor, _ Capability) bool { return actor.UserID != "" }

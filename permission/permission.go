// Package permission implements the controller-control authorization gate
// (spec §4.4, §6). Permissions are opaque dotted strings of the form
// "core.<object>.<verb>". Replacing the teacher's this-rebinding pattern
// (Design Note), the caller identity and permission set are an explicit
// Identity value attached to the Link (link.Link.Identity), which the
// request layer's permission wrapper checks before the handler runs.
// Handlers themselves receive only a context and the raw payload; no
// per-call context value carries the link or the identity to them.
package permission

import "fmt"

// Permission is a typed "core.<object>.<verb>" string.
type Permission string

// The permission catalog used by the control-originated requests in §6.
// Enumerating them here keeps call sites from scattering bare string
// literals across the codebase (SPEC_FULL §C).
const (
	HostList             Permission = "core.host.list"
	HostSubscribe        Permission = "core.host.subscribe"
	HostGenerateToken    Permission = "core.host.generate_token"
	HostCreateConfig     Permission = "core.host.create_config"
	InstanceGet          Permission = "core.instance.get"
	InstanceList         Permission = "core.instance.list"
	InstanceSubscribe    Permission = "core.instance.subscribe"
	InstanceCreate       Permission = "core.instance.create"
	InstanceGetConfig    Permission = "core.instance.get_config"
	InstanceSetConfig    Permission = "core.instance.set_config"
	InstanceAssign       Permission = "core.instance.assign"
	InstanceStart        Permission = "core.instance.start"
	InstanceStop         Permission = "core.instance.stop"
	InstanceKill         Permission = "core.instance.kill"
	InstanceDelete       Permission = "core.instance.delete"
	InstanceLoadScenario Permission = "core.instance.load_scenario"
	InstanceExportData   Permission = "core.instance.export_data"
	InstanceExtractPlay  Permission = "core.instance.extract_players"
	InstanceSendRCON     Permission = "core.instance.send_rcon"
	SaveList             Permission = "core.save.list"
	SaveCreate           Permission = "core.save.create"
	SaveRename           Permission = "core.save.rename"
	SaveCopy             Permission = "core.save.copy"
	SaveDelete           Permission = "core.save.delete"
	SaveDownload         Permission = "core.save.download"
	SaveTransfer         Permission = "core.save.transfer"
	ModPackRead          Permission = "core.mod_pack.read"
	ModPackWrite         Permission = "core.mod_pack.write"
	ModPackDelete        Permission = "core.mod_pack.delete"
	ModPackSearch        Permission = "core.mod_pack.search"
	ModPackDownload      Permission = "core.mod_pack.download"
	ModRead              Permission = "core.mod.read"
	ModWrite             Permission = "core.mod.write"
	ModDelete            Permission = "core.mod.delete"
	UserCreate           Permission = "core.user.create"
	UserRead             Permission = "core.user.read"
	UserUpdate           Permission = "core.user.update"
	UserDelete           Permission = "core.user.delete"
	UserSetAdmin         Permission = "core.user.set_admin"
	UserSetBanned        Permission = "core.user.set_banned"
	UserSetWhitelisted   Permission = "core.user.set_whitelisted"
	UserRevokeToken      Permission = "core.user.revoke_token"
	RoleCreate           Permission = "core.role.create"
	RoleRead             Permission = "core.role.read"
	RoleUpdate           Permission = "core.role.update"
	RoleDelete           Permission = "core.role.delete"
	RoleGrantDefault     Permission = "core.role.grant_default"
	LogSubscribe         Permission = "core.log.subscribe"
	LogQuery             Permission = "core.log.query"
	ControllerConfigGet  Permission = "core.controller_config.get"
	ControllerConfigSet  Permission = "core.controller_config.set"
	MetricsGet           Permission = "core.metrics.get"
)

// Set is a caller's granted permission set.
type Set map[Permission]struct{}

// NewSet builds a Set from a variadic list of permissions.
func NewSet(perms ...Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether the set grants p.
func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Identity is the caller attached to a controller-control link: who they
// are and what they are allowed to do.
type Identity struct {
	Name        string
	Permissions Set
}

// DeniedError is the user-visible authorization failure raised when an
// Identity lacks a required Permission.
type DeniedError struct {
	Permission Permission
	Identity   string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s lacks %s", e.Identity, e.Permission)
}

// Check returns a *DeniedError if identity does not hold permission, nil
// otherwise.
func Check(identity *Identity, required Permission) error {
	if identity == nil || !identity.Permissions.Has(required) {
		name := "<unknown>"
		if identity != nil {
			name = identity.Name
		}
		return &DeniedError{Permission: required, Identity: name}
	}
	return nil
}

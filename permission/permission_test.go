package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_Has(t *testing.T) {
	s := NewSet(HostList, InstanceStart)
	assert.True(t, s.Has(HostList))
	assert.False(t, s.Has(UserDelete))
}

func TestCheck_GrantedPermissionPasses(t *testing.T) {
	id := &Identity{Name: "alice", Permissions: NewSet(HostList)}
	assert.NoError(t, Check(id, HostList))
}

func TestCheck_MissingPermissionDenied(t *testing.T) {
	id := &Identity{Name: "alice", Permissions: NewSet(HostList)}
	err := Check(id, UserDelete)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "alice")
	assert.Contains(t, err.Error(), string(UserDelete))
}

func TestCheck_NilIdentityDenied(t *testing.T) {
	err := Check(nil, HostList)
	assert.Error(t, err)
}

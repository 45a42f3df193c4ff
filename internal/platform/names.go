package platform

import (
	"os/user"
	"runtime"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultNameCacheSize bounds the number of uid and gid lookups remembered.
const defaultNameCacheSize = 256

// NameResolver maps numeric owner and group ids to names and back.
//
// Lookups go through os/user and are cached. Unknown ids resolve to their
// decimal form, matching what ls(1) prints.
type NameResolver struct {
	users    *lru.Cache[uint32, string]
	groups   *lru.Cache[uint32, string]
	userIDs  *lru.Cache[string, idLookup]
	groupIDs *lru.Cache[string, idLookup]
}

// idLookup caches a name lookup, including misses.
type idLookup struct {
	id uint32
	ok bool
}

// NewNameResolver creates a resolver caching up to size entries per kind.
// A size <= 0 uses the default.
func NewNameResolver(size int) *NameResolver {
	if size <= 0 {
		size = defaultNameCacheSize
	}
	// lru.New only fails for non-positive sizes.
	users, _ := lru.New[uint32, string](size)      //nolint:errcheck // size is positive
	groups, _ := lru.New[uint32, string](size)     //nolint:errcheck // size is positive
	userIDs, _ := lru.New[string, idLookup](size)  //nolint:errcheck // size is positive
	groupIDs, _ := lru.New[string, idLookup](size) //nolint:errcheck // size is positive
	return &NameResolver{users: users, groups: groups, userIDs: userIDs, groupIDs: groupIDs}
}

var (
	defaultResolverOnce sync.Once
	defaultResolver     *NameResolver
)

// DefaultNameResolver returns the process-wide resolver.
func DefaultNameResolver() *NameResolver {
	defaultResolverOnce.Do(func() {
		defaultResolver = NewNameResolver(0)
	})
	return defaultResolver
}

// UserName returns the name of the user with the given uid.
func (r *NameResolver) UserName(uid uint32) string {
	if !supportsOwners() {
		return ""
	}
	if name, ok := r.users.Get(uid); ok {
		return name
	}
	id := strconv.FormatUint(uint64(uid), 10)
	name := id
	if u, err := user.LookupId(id); err == nil {
		name = u.Username
	}
	r.users.Add(uid, name)
	return name
}

// GroupName returns the name of the group with the given gid.
func (r *NameResolver) GroupName(gid uint32) string {
	if !supportsOwners() {
		return ""
	}
	if name, ok := r.groups.Get(gid); ok {
		return name
	}
	id := strconv.FormatUint(uint64(gid), 10)
	name := id
	if g, err := user.LookupGroupId(id); err == nil {
		name = g.Name
	}
	r.groups.Add(gid, name)
	return name
}

// UserID returns the uid of the named user. A decimal name that matches no
// user is taken as the id itself. ok is false when the name is unknown.
func (r *NameResolver) UserID(name string) (uint32, bool) {
	if name == "" || !supportsOwners() {
		return 0, false
	}
	if hit, ok := r.userIDs.Get(name); ok {
		return hit.id, hit.ok
	}
	var res idLookup
	if u, err := user.Lookup(name); err == nil {
		res = parseID(u.Uid)
	} else {
		res = parseID(name)
	}
	r.userIDs.Add(name, res)
	return res.id, res.ok
}

// GroupID returns the gid of the named group, with the same rules as
// UserID.
func (r *NameResolver) GroupID(name string) (uint32, bool) {
	if name == "" || !supportsOwners() {
		return 0, false
	}
	if hit, ok := r.groupIDs.Get(name); ok {
		return hit.id, hit.ok
	}
	var res idLookup
	if g, err := user.LookupGroup(name); err == nil {
		res = parseID(g.Gid)
	} else {
		res = parseID(name)
	}
	r.groupIDs.Add(name, res)
	return res.id, res.ok
}

func parseID(s string) idLookup {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return idLookup{}
	}
	return idLookup{id: uint32(id), ok: true}
}

func supportsOwners() bool {
	return runtime.GOOS != "windows" && runtime.GOOS != "plan9"
}

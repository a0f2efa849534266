package cacheable

import (
	"reflect"
	"runtime"
	"strings"

	"github.com/unkn0wn-root/cacheable/internal/util"
)

// DeriveKey returns the default key for an operation.
//
// The key depends on the operation identity only, never on call arguments:
// every call to the same operation shares one slot. getUser(1) and getUser(2)
// collide unless an explicit key (or WrapKeyed) is used.
func DeriveKey(id Identity) Key {
	return "op:" + util.Digest(id.Owner, id.Name)
}

// IdentityOf derives an Identity from a func value using the runtime symbol
// table. Methods keep their receiver in Owner ("pkg/path.(*T)").
// Closures get compiler-generated names (func1, func2...) which are stable for
// a given build but not across refactors; prefer explicit identities there.
func IdentityOf(fn any) Identity {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return Identity{}
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return Identity{}
	}
	full := strings.TrimSuffix(rf.Name(), "-fm") // method values
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return Identity{Name: full}
	}
	split := slash + 1 + dot
	owner, name := full[:split], full[split+1:]
	// pkg.(*T).Method or pkg.T.Method: move the receiver into Owner
	if i := strings.LastIndex(name, "."); i >= 0 && !strings.HasPrefix(name[i+1:], "func") {
		owner, name = owner+"."+name[:i], name[i+1:]
	}
	return Identity{Owner: owner, Name: name}
}

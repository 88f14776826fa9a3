package exclusion

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoin(t *testing.T) {
	tests := []struct {
		dir, name, want string
	}{
		{"/home/luis/site", "node_modules", "/home/luis/site/node_modules"},
		{"/home/luis/site/", "node_modules", "/home/luis/site/node_modules"},
		{"/home/luis/site//", "node_modules", "/home/luis/site/node_modules"},
		{"/", "etc", "/etc"},
		{"/home//luis/./site", "node_modules", "/home/luis/site/node_modules"},
		{"/home/luis/site/../site/", "node_modules", "/home/luis/site/node_modules"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s+%s", tt.dir, tt.name), func(t *testing.T) {
			assert.Equal(t, tt.want, Join(tt.dir, tt.name))
		})
	}
}

func TestResolve(t *testing.T) {
	t.Run("distinct names", func(t *testing.T) {
		set := Resolve("/proj", []string{"a", "b", "c"})
		assert.Equal(t, 3, set.Len())
		assert.Equal(t, []string{"/proj/a", "/proj/b", "/proj/c"}, set.Paths())
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		set := Resolve("/proj/", []string{"a", "a", "b"})
		assert.Equal(t, 2, set.Len())
	})

	t.Run("every member has a single separator after the project directory", func(t *testing.T) {
		for _, dir := range []string{"/proj", "/proj/", "/proj///"} {
			set := Resolve(dir, []string{"x", "y"})
			for _, p := range set.Paths() {
				assert.True(t, strings.HasPrefix(p, "/proj/"), p)
				assert.False(t, strings.HasPrefix(p, "/proj//"), p)
			}
		}
	})

	t.Run("empty names yield an empty set", func(t *testing.T) {
		set := Resolve("/proj", nil)
		assert.Equal(t, 0, set.Len())
		assert.False(t, set.Excludes("/proj"))
		assert.False(t, set.Excludes("/proj/a"))
	})

	t.Run("non-canonical project directory", func(t *testing.T) {
		set := Resolve("//proj/./", []string{"node_modules"})
		assert.True(t, set.Excludes("/proj/node_modules"))
	})

	t.Run("nested and empty names are ignored", func(t *testing.T) {
		set := Resolve("/proj", []string{"", "src/vendor", `a\b`, "ok"})
		assert.Equal(t, []string{"/proj/ok"}, set.Paths())
	})
}

func TestExcludes(t *testing.T) {
	set := Resolve("/proj", []string{"node_modules"})

	assert.True(t, set.Excludes("/proj/node_modules"))
	assert.False(t, set.Excludes("/proj/node_modules/left-pad"))
	assert.False(t, set.Excludes("/proj/src"))
	assert.False(t, set.Excludes("/other/node_modules"))

	var nilSet Set
	assert.False(t, nilSet.Excludes("/proj/node_modules"))
}

package memory

import (
	"testing"

	"github.com/spur-grants/grant-server/pkg/spur/data/grant/tests"
)

func TestGrantMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}

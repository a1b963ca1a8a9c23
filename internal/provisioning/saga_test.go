package provisioning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSagaRollback(t *testing.T) {
	var undone []string
	reported := map[string]bool{}

	s := &saga{report: func(step string, err error) { reported[step] = err == nil }}
	for _, step := range []string{"first", "second", "third"} {
		s.push(step, func(context.Context) error {
			undone = append(undone, step)
			if step == "second" {
				return errors.New("stuck")
			}
			return nil
		})
	}

	s.rollback(context.Background())

	assert.Equal(t, []string{"third", "second", "first"}, undone)
	assert.Equal(t, map[string]bool{"first": true, "second": false, "third": true}, reported)

	// rolling back twice is a no-op
	s.rollback(context.Background())
	assert.Len(t, undone, 3)
}

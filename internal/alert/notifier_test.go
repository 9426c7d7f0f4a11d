package alert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/your-org/fib-swing-bot/internal/alert"
)

func TestNoOpNotifier(t *testing.T) {
	n := alert.NewNoOpNotifier()
	assert.NoError(t, n.Send("BUY SOLBTC"))
	assert.NoError(t, n.Close())
}

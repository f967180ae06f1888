package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommand(t *testing.T) {
	const u = "https://pixabay.com/get/x_1280.jpg"

	name, args := Command("darwin", u)
	assert.Equal(t, "open", name)
	assert.Equal(t, []string{u}, args)

	name, args = Command("linux", u)
	assert.Equal(t, "xdg-open", name)
	assert.Equal(t, []string{u}, args)

	name, args = Command("windows", u)
	assert.Equal(t, "rundll32", name)
	assert.Equal(t, []string{"url.dll,FileProtocolHandler", u}, args)
}

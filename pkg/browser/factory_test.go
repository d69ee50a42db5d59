package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/prerender/pkg/logging"
)

func TestNewFactory_RejectsUnknownKind(t *testing.T) {
	tests := []struct {
		name string
		kind string
	}{
		{name: "empty kind", kind: ""},
		{name: "chrome alias", kind: "chrome"},
		{name: "unknown browser", kind: "netscape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactory(FactoryOptions{Kind: tt.kind}, logging.Discard())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedBrowser)
		})
	}
}

func TestProvisionMode_String(t *testing.T) {
	assert.Equal(t, "managed", ModeManaged.String())
	assert.Equal(t, "local", ModeLocal.String())
	assert.Equal(t, "remote", ModeRemote.String())
}

func TestFactory_ManagedSession(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	factory, err := NewFactory(FactoryOptions{
		Kind:     "chromium",
		Mode:     ModeManaged,
		Headless: true,
	}, logging.Discard())
	require.NoError(t, err)
	defer factory.Close()

	d, err := factory.New()
	require.NoError(t, err)
	defer d.Close()

	assert.NotEmpty(t, d.ID())

	require.NoError(t, d.Navigate("about:blank"))
	assert.Equal(t, "about:blank", d.CurrentURL())

	source, err := d.PageSource()
	require.NoError(t, err)
	assert.Contains(t, source, "<html")
}

func TestFactory_SessionsHaveDistinctIdentity(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	factory, err := NewFactory(FactoryOptions{
		Kind:     "chromium",
		Mode:     ModeManaged,
		Headless: true,
	}, logging.Discard())
	require.NoError(t, err)
	defer factory.Close()

	a, err := factory.New()
	require.NoError(t, err)
	defer a.Close()

	b, err := factory.New()
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.ID(), b.ID())
}

package langdetect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect_ShortTextFallsBack(t *testing.T) {
	require.Equal(t, "en", New("").Detect("oi"))
	require.Equal(t, "pt", New("PT").Detect("   "))
}

func TestDetect_Portuguese(t *testing.T) {
	d := New("")
	got := d.Detect("Eu gostaria de saber mais sobre a história do povo judeu e a fundação do Estado de Israel, por favor.")
	require.Equal(t, "pt", got)
}

func TestDetect_English(t *testing.T) {
	d := New("")
	got := d.Detect("I would like to know more about the history of the Jewish people and the founding of the State of Israel, please.")
	require.Equal(t, "en", got)
}

package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchingResultLinks(t *testing.T) {
	page := `<body>
		<article>Comisión de Hacienda AM <a href="/player/201">ver</a></article>
		<article>Sesión de Sala <a href="/player/202">ver</a></article>
		<article>Comisión de Hacienda PM <a href="/player/203">ver</a></article>
	</body>`

	hrefs, err := matchingResultLinks(page, "article", []string{"hacienda"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/player/201", "/player/203"}, hrefs)
}

func TestMatchingResultIndices(t *testing.T) {
	page := `<div id="ResultadoBusqueda">
		<article>
			<div>Comisión de Salud PM <input type="button"></div>
			<div>Comisión de Educación <input type="button"></div>
			<div>Comisión de Salud AM <input type="button"></div>
		</article>
	</div>`

	indices, err := matchingResultIndices(page, "article > div:has(input)", []string{"salud"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, indices)
}

func TestCommissionOptionValue(t *testing.T) {
	selectHTML := `<select>
		<option value="">Seleccione</option>
		<option value="12">Comisión de Educación</option>
		<option value="27">Comisión de Salud</option>
	</select>`

	value, ok := commissionOptionValue(selectHTML, []string{"salud"})
	require.True(t, ok)
	assert.Equal(t, "27", value)

	_, ok = commissionOptionValue(selectHTML, []string{"minería"})
	assert.False(t, ok)
}

package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestBlockText(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html>
<head><title>ignored</title><style>p { color: red; }</style></head>
<body>
	<h1>Seller   Statement</h1>
	<p>Statement For:&nbsp;Spring Sale<br>Statement Date: 03/27/2025</p>
	<!-- Seller Number: 12 -->
	<table>
		<tr><td>Email:</td><td>jane@example.com</td></tr>
		<tr><th>Total</th><td>$5.00</td></tr>
	</table>
	<script>var x = "not text";</script>
</body></html>`))
	require.NoError(t, err)

	lines := BlockText(doc)
	require.Equal(t, []string{
		"Seller Statement",
		"Statement For: Spring Sale",
		"Statement Date: 03/27/2025",
		"Email: jane@example.com",
		"Total $5.00",
	}, lines)
}

func TestNormalizeSpace(t *testing.T) {
	require.Equal(t, "a b c", NormalizeSpace(" \ta\n\n b \u00a0c\u200b "))
	require.Equal(t, "", NormalizeSpace(" \n\t "))
}

package pipeline

import "strings"

// InjectBase inserts <base href="uri"> so relative links and images resolve
// against the source document once the HTML leaves its original location.
// Tries </head> first, then <body>, then prepends to the HTML.
// An existing <base> element is left alone.
func InjectBase(htmlContent, uri string) string {
	if uri == "" {
		return htmlContent
	}

	lowerHTML := strings.ToLower(htmlContent)
	if strings.Contains(lowerHTML, "<base ") {
		return htmlContent
	}

	baseTag := `<base href="` + escapeAttr(uri) + `">` + "\n"

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + baseTag + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		closeIdx := strings.Index(htmlContent[idx:], ">")
		if closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + baseTag + htmlContent[insertPos:]
		}
	}

	return baseTag + htmlContent
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;")

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

package certify

import "strings"

// ResolveTemplateCode picks the template code for a rendering, in order:
// the edition's explicit template version, then <lang>_<scope> derived from
// the edition, then the hard default.
func ResolveTemplateCode(templateVersion, scope, lang, defaultCode string) string {
	if templateVersion != "" {
		return templateVersion
	}
	if scope != "" {
		if lang == "" {
			lang = "ar"
		}
		return strings.ToLower(lang + "_" + scope)
	}
	return defaultCode
}

package parsecommon

import "testing"

func TestRawImportLocation(t *testing.T) {
	col := 4
	r := RawImport{SourceFile: "a.py", Line: 12, Column: &col}
	loc := r.Location()
	if loc.File != "a.py" || loc.Line != 12 || loc.Column == nil || *loc.Column != 4 {
		t.Errorf("Location() = %+v, want file=a.py line=12 column=4", loc)
	}
}

func TestResolvedImportIsEdge(t *testing.T) {
	cases := []struct {
		name string
		r    ResolvedImport
		want bool
	}{
		{"resolved with canonical path", ResolvedImport{Raw: RawImport{Confidence: Resolved}, CanonicalPath: "b.py"}, true},
		{"resolved but failed to link", ResolvedImport{Raw: RawImport{Confidence: Resolved}, FailedToLink: true, CanonicalPath: "b.py"}, false},
		{"resolved but empty canonical path", ResolvedImport{Raw: RawImport{Confidence: Resolved}}, false},
		{"external import", ResolvedImport{Raw: RawImport{Confidence: External}, CanonicalPath: "b.py"}, false},
		{"dynamic import", ResolvedImport{Raw: RawImport{Confidence: Dynamic}}, false},
		{"unresolvable import", ResolvedImport{Raw: RawImport{Confidence: Unresolvable}}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.r.IsEdge(); got != c.want {
				t.Errorf("IsEdge() = %v, want %v", got, c.want)
			}
		})
	}
}

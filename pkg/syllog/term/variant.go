package term

// Variant reports whether two literal lists are equal up to a consistent
// renaming of their variables. Constants and generic individuals must match
// exactly; every other variable must map one-to-one onto a variable of the
// same kind.
func Variant(a, b []Literal) bool {
	if len(a) != len(b) {
		return false
	}
	fwd := make(map[string]string)
	rev := make(map[string]string)
	for i := range a {
		if a[i].Positive != b[i].Positive || a[i].Pred != b[i].Pred || len(a[i].Args) != len(b[i].Args) {
			return false
		}
		for j := range a[i].Args {
			x, y := a[i].Args[j], b[i].Args[j]
			if x.Kind != y.Kind {
				return false
			}
			if x.Kind == Const || x.IsGeneric() || y.IsGeneric() {
				if !x.Equal(y) {
					return false
				}
				continue
			}
			kx, ky := x.Key(), y.Key()
			if m, ok := fwd[kx]; ok {
				if m != ky {
					return false
				}
				continue
			}
			if _, ok := rev[ky]; ok {
				return false
			}
			fwd[kx] = ky
			rev[ky] = kx
		}
	}
	return true
}

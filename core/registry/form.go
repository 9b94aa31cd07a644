package registry

// formField is one key/value pair of an urlencoded form.
type formField struct {
	key   string
	value []byte
}

// encodeForm encodes fields as application/x-www-form-urlencoded into a single
// buffer sized up front, so the encoded secret exists in exactly one place and
// wipeForm can zero it. Fields keep their order.
func encodeForm(fields ...formField) []byte {
	size := 0
	for _, f := range fields {
		size += 3*len(f.key) + 3*len(f.value) + 2
	}
	buf := make([]byte, 0, size)
	for i, f := range fields {
		if i > 0 {
			buf = append(buf, '&')
		}
		buf = appendEscaped(buf, []byte(f.key))
		buf = append(buf, '=')
		buf = appendEscaped(buf, f.value)
	}
	return buf
}

func wipeForm(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

const upperhex = "0123456789ABCDEF"

func appendEscaped(buf, s []byte) []byte {
	for _, c := range s {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			buf = append(buf, c)
		case c == ' ':
			buf = append(buf, '+')
		default:
			buf = append(buf, '%', upperhex[c>>4], upperhex[c&15])
		}
	}
	return buf
}

package pdf

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const defaultFontSize = 12.0

// Resource names of the injected fonts.
const (
	fontRegular = "Helv"
	fontBold    = "HeBo"
)

var daFontSize = regexp.MustCompile(`(\d+(?:\.\d+)?)\s+Tf`)
var daColor = regexp.MustCompile(`Tf\s+(.*)$`)

// defaultAppearance is the parsed /DA of a text field.
type defaultAppearance struct {
	size  float64
	color string
}

func parseDA(da string) defaultAppearance {
	out := defaultAppearance{size: defaultFontSize, color: "0 g"}
	if m := daFontSize.FindStringSubmatch(da); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out.size = v
		}
	}
	if m := daColor.FindStringSubmatch(strings.TrimSpace(da)); m != nil && strings.TrimSpace(m[1]) != "" {
		out.color = strings.TrimSpace(m[1])
	}
	return out
}

func (a defaultAppearance) string(font string) string {
	return fmt.Sprintf("/%s %s Tf %s", font, formatNumber(a.size), a.color)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var winAnsi = encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())

// toWinAnsi encodes s for the standard 14 fonts; unmappable runes become '?'.
func toWinAnsi(s string) string {
	out, err := winAnsi.String(s)
	if err != nil {
		return strings.Map(func(r rune) rune {
			if r < 0x80 {
				return r
			}
			return '?'
		}, s)
	}
	return out
}

// escapeLiteral escapes raw bytes for a PDF literal string body.
func escapeLiteral(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '(' || c == ')' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c > 0x7e:
			fmt.Fprintf(&b, "\\%03o", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func unescapeLiteral(s string) string {
	var b bytes.Buffer
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '\n':
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		default:
			if e >= '0' && e <= '7' {
				v := 0
				j := i
				for ; j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7'; j++ {
					v = v*8 + int(s[j]-'0')
				}
				b.WriteByte(byte(v))
				i = j - 1
				continue
			}
			b.WriteByte(e)
		}
	}
	return b.String()
}

// textString encodes a field value: a literal for ASCII, UTF-16BE hex otherwise.
func textString(s string) types.Object {
	ascii := true
	for _, r := range s {
		if r >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return types.StringLiteral(escapeLiteral(s))
	}
	units := utf16.Encode([]rune(s))
	buf := make([]byte, 0, 2+2*len(units))
	buf = append(buf, 0xfe, 0xff)
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return types.HexLiteral(strings.ToUpper(hex.EncodeToString(buf)))
}

func decodeText(o types.Object) (string, bool) {
	var raw []byte
	switch v := o.(type) {
	case types.StringLiteral:
		raw = []byte(unescapeLiteral(string(v)))
	case types.HexLiteral:
		b, err := hex.DecodeString(strings.TrimSpace(string(v)))
		if err != nil {
			return "", false
		}
		raw = b
	default:
		return "", false
	}
	if len(raw) >= 2 && raw[0] == 0xfe && raw[1] == 0xff {
		units := make([]uint16, 0, (len(raw)-2)/2)
		for i := 2; i+1 < len(raw); i += 2 {
			units = append(units, uint16(raw[i])<<8|uint16(raw[i+1]))
		}
		return string(utf16.Decode(units)), true
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw), true
	}
	return string(out), true
}

// measurer reports text widths of the standard Helvetica faces using the
// core font metrics bundled with gofpdf. Not safe for concurrent use.
type measurer struct {
	pdf *gofpdf.Fpdf
}

func newMeasurer() *measurer {
	return &measurer{pdf: gofpdf.New("P", "pt", "A4", "")}
}

// width of WinAnsi encoded text.
func (m *measurer) width(text string, bold bool, size float64) float64 {
	style := ""
	if bold {
		style = "B"
	}
	m.pdf.SetFont("Helvetica", style, size)
	return m.pdf.GetStringWidth(text)
}

type quadding int

const (
	alignLeft quadding = iota
	alignCenter
	alignRight
)

const textPadding = 2.0

// textAppearance builds the normal appearance content of a text widget.
func textAppearance(m *measurer, value string, da defaultAppearance, font string, q quadding, multiline bool, w, h float64) []byte {
	bold := font == fontBold
	size := da.size
	if size <= 0 {
		size = min(defaultFontSize, h-2*textPadding)
	}

	var lines []string
	if multiline {
		lines = strings.Split(strings.ReplaceAll(value, "\r\n", "\n"), "\n")
	} else {
		lines = []string{strings.ReplaceAll(value, "\n", " ")}
	}

	var b bytes.Buffer
	b.WriteString("/Tx BMC\nq\n")
	fmt.Fprintf(&b, "1 1 %s %s re W n\n", formatNumber(w-2), formatNumber(h-2))
	b.WriteString("BT\n")
	fmt.Fprintf(&b, "/%s %s Tf %s\n", font, formatNumber(size), da.color)

	leading := size * 1.15
	y := (h-size)/2 + size*0.22
	if multiline {
		y = h - textPadding - size*0.9
	}
	for _, line := range lines {
		encoded := toWinAnsi(line)
		x := textPadding
		switch q {
		case alignCenter:
			x = (w - m.width(encoded, bold, size)) / 2
		case alignRight:
			x = w - textPadding - m.width(encoded, bold, size)
		}
		fmt.Fprintf(&b, "1 0 0 1 %.2f %.2f Tm (%s) Tj\n", x, y, escapeLiteral(encoded))
		y -= leading
	}
	b.WriteString("ET\nQ\nEMC\n")
	return b.Bytes()
}

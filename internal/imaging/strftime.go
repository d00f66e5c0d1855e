package imaging

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// TemplateContext carries the Motion-specific expansion values for
// strftime_plus, gathered per spec §4.2. Every field is optional; an unset
// field expands to its zero value ("0", or an empty string for text fields).
type TemplateContext struct {
	EventID         uint64 // %v
	ShotIndex       int    // %q
	ChangedPixels   uint32 // %D
	Noise           uint8  // %N
	BoxW, BoxH      int    // %i / %J
	BoxCenterX      int    // %K
	BoxCenterY      int    // %L
	Threshold       int    // %o
	LabelCount      uint16 // %Q
	CameraID        string // %t
	TextEvent       string // %C
	Width, Height   int    // %w / %h
	Filename        string // %f
	FileTypeCode    int    // %n
	Host            string // %{host}
	FPS             int    // %{fps}
	DBEventID       uint64 // %{dbeventid}
	Version         string // %{ver}
	CameraName      string // %$
}

// StrftimePlus expands template against t and ctx. It accepts every
// standard strftime specifier (delegated to github.com/ncruces/go-strftime)
// plus the Motion extensions listed in spec §4.2, including the numeric
// width modifier (e.g. "%05v"). Unknown long-form "%{...}" tokens emit '~'.
//
// Idempotence: running StrftimePlus again on a result that contains no '%'
// is a no-op. A "%%" escape, or a context value holding '%', puts a '%' back
// into the result, and a second run expands it again.
func StrftimePlus(template string, t time.Time, ctx TemplateContext) string {
	var out strings.Builder
	i := 0
	for i < len(template) {
		c := template[i]
		if c != '%' {
			out.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(template) {
			out.WriteByte(c)
			break
		}

		// Long form: %{name}
		if template[i+1] == '{' {
			end := strings.IndexByte(template[i+2:], '}')
			if end < 0 {
				out.WriteString(template[i:])
				break
			}
			name := template[i+2 : i+2+end]
			out.WriteString(expandLongForm(name, ctx))
			i += 2 + end + 1
			continue
		}

		// Optional zero-padded width modifier, e.g. %05v.
		j := i + 1
		width := 0
		hasWidth := false
		for j < len(template) && template[j] >= '0' && template[j] <= '9' {
			hasWidth = true
			width = width*10 + int(template[j]-'0')
			j++
		}
		if j >= len(template) {
			out.WriteString(template[i:])
			break
		}
		spec := template[j]

		if val, ok := expandShortForm(spec, ctx); ok {
			if hasWidth {
				out.WriteString(padNumeric(val, width))
			} else {
				out.WriteString(val)
			}
			i = j + 1
			continue
		}

		// Not a Motion extension: delegate the single specifier to the
		// standard strftime implementation.
		out.WriteString(strftime.Format("%"+string(spec), t))
		i = j + 1
	}
	return out.String()
}

func padNumeric(s string, width int) string {
	if n, err := strconv.Atoi(s); err == nil {
		return fmt.Sprintf("%0*d", width, n)
	}
	return s
}

func expandShortForm(spec byte, ctx TemplateContext) (string, bool) {
	switch spec {
	case 'v':
		return strconv.FormatUint(ctx.EventID, 10), true
	case 'q':
		return strconv.Itoa(ctx.ShotIndex), true
	case 'D':
		return strconv.FormatUint(uint64(ctx.ChangedPixels), 10), true
	case 'N':
		return strconv.Itoa(int(ctx.Noise)), true
	case 'i':
		return strconv.Itoa(ctx.BoxW), true
	case 'J':
		return strconv.Itoa(ctx.BoxH), true
	case 'K':
		return strconv.Itoa(ctx.BoxCenterX), true
	case 'L':
		return strconv.Itoa(ctx.BoxCenterY), true
	case 'o':
		return strconv.Itoa(ctx.Threshold), true
	case 'Q':
		return strconv.FormatUint(uint64(ctx.LabelCount), 10), true
	case 't':
		return ctx.CameraID, true
	case 'C':
		return ctx.TextEvent, true
	case 'w':
		return strconv.Itoa(ctx.Width), true
	case 'h':
		return strconv.Itoa(ctx.Height), true
	case 'f':
		return ctx.Filename, true
	case 'n':
		return strconv.Itoa(ctx.FileTypeCode), true
	case '$':
		return ctx.CameraName, true
	case '%':
		return "%", true
	}
	return "", false
}

func expandLongForm(name string, ctx TemplateContext) string {
	switch name {
	case "host":
		return ctx.Host
	case "fps":
		return strconv.Itoa(ctx.FPS)
	case "dbeventid":
		return strconv.FormatUint(ctx.DBEventID, 10)
	case "ver":
		return ctx.Version
	default:
		return "~"
	}
}

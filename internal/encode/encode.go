package encode

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/qr"

	"github.com/MrSnakeDoc/yaelah/internal/domain"
)

// Format names a visual symbology.
type Format string

const (
	FormatQR      Format = "qr"
	FormatCode128 Format = "code128"
	FormatCode39  Format = "code39"
	FormatEAN13   Format = "ean13"
	FormatUPC     Format = "upc"
)

const (
	DefaultSize   = 200
	MinSize       = 64
	MaxSize       = 1024
	MaxTextLength = 2048

	// linearHeight is the bar height used for one-dimensional codes.
	linearHeight = 100
)

// ParseFormat maps a user-supplied name to a Format. Empty means QR.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatQR, nil
	case FormatQR, FormatCode128, FormatCode39, FormatEAN13, FormatUPC:
		return f, nil
	}
	return "", &domain.ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported format %q", s)}
}

// Encode renders text in the given format. size is the side of a QR code or
// the minimum width of a linear barcode; 0 uses DefaultSize.
func Encode(text string, format Format, size int) (image.Image, error) {
	if text == "" {
		return nil, &domain.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if len(text) > MaxTextLength {
		return nil, &domain.ValidationError{Field: "text", Reason: fmt.Sprintf("must be at most %d characters", MaxTextLength)}
	}
	if size == 0 {
		size = DefaultSize
	}
	if size < MinSize || size > MaxSize {
		return nil, &domain.ValidationError{Field: "size", Reason: fmt.Sprintf("must be between %d and %d", MinSize, MaxSize)}
	}

	code, err := symbol(text, format)
	if err != nil {
		return nil, err
	}

	width, height := max(size, code.Bounds().Dx()), linearHeight
	if format == FormatQR {
		if size < code.Bounds().Dx() {
			return nil, &domain.ValidationError{Field: "size", Reason: fmt.Sprintf("must be at least %d for this text", code.Bounds().Dx())}
		}
		width, height = size, size
	}

	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to scale %s code: %w", format, err)
	}
	return scaled, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func symbol(text string, format Format) (barcode.Barcode, error) {
	var (
		code barcode.Barcode
		err  error
	)
	switch format {
	case FormatQR:
		code, err = qr.Encode(text, qr.M, qr.Auto)
	case FormatCode128:
		code, err = code128.Encode(text)
	case FormatCode39:
		code, err = code39.Encode(text, false, true)
	case FormatEAN13:
		if err := requireDigits(text, 12); err != nil {
			return nil, err
		}
		code, err = ean.Encode(text)
	case FormatUPC:
		if err := requireDigits(text, 11); err != nil {
			return nil, err
		}
		// UPC-A is EAN-13 with a leading zero.
		code, err = ean.Encode("0" + text)
	default:
		return nil, &domain.ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported format %q", format)}
	}
	if err != nil {
		return nil, &domain.ValidationError{Field: "text", Reason: err.Error()}
	}
	return code, nil
}

// requireDigits checks text holds exactly n digits; the check digit is
// computed by the encoder.
func requireDigits(text string, n int) error {
	if len(text) != n {
		return &domain.ValidationError{Field: "text", Reason: fmt.Sprintf("must be exactly %d digits", n)}
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return &domain.ValidationError{Field: "text", Reason: "must contain digits only"}
		}
	}
	return nil
}

// CheckDigit returns the GS1 check digit for an EAN-13 or UPC-A payload
// (12 or 11 digits), as printed under the bars.
func CheckDigit(digits string) (int, error) {
	if len(digits) != 11 && len(digits) != 12 {
		return 0, &domain.ValidationError{Field: "text", Reason: "check digit needs 11 or 12 digits"}
	}
	if len(digits) == 11 {
		digits = "0" + digits
	}
	sum := 0
	for i, r := range digits {
		if r < '0' || r > '9' {
			return 0, &domain.ValidationError{Field: "text", Reason: "must contain digits only"}
		}
		d := int(r - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10, nil
}

package dataset

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
)

// The AT&T/Olivetti face archive ships as binary (P5) and sometimes ASCII
// (P2) portable graymaps, which neither the standard library nor x/image
// decode.
func init() {
	image.RegisterFormat("pgm", "P5", decodePGM, decodePGMConfig)
	image.RegisterFormat("pgm", "P2", decodePGM, decodePGMConfig)
}

// maxPGMPixels bounds the image a header may declare.
const maxPGMPixels = 1 << 26

type pgmHeader struct {
	magic         string
	width, height int
	maxVal        int
}

func readPGMHeader(r *bufio.Reader) (pgmHeader, error) {
	var h pgmHeader
	magic, err := pgmToken(r)
	if err != nil {
		return h, err
	}
	if magic != "P5" && magic != "P2" {
		return h, fmt.Errorf("pgm: unsupported magic %q", magic)
	}
	h.magic = magic

	fields := make([]int, 3)
	for i := range fields {
		tok, err := pgmToken(r)
		if err != nil {
			return h, err
		}
		if fields[i], err = strconv.Atoi(tok); err != nil {
			return h, fmt.Errorf("pgm: bad header field %q: %w", tok, err)
		}
	}
	h.width, h.height, h.maxVal = fields[0], fields[1], fields[2]
	if h.width <= 0 || h.height <= 0 || h.maxVal <= 0 || h.maxVal > 65535 {
		return h, fmt.Errorf("pgm: invalid header %dx%d max %d", h.width, h.height, h.maxVal)
	}
	if h.width > maxPGMPixels/h.height {
		return h, fmt.Errorf("pgm: image %dx%d exceeds %d pixels", h.width, h.height, maxPGMPixels)
	}
	return h, nil
}

// pgmToken reads one whitespace separated header token, skipping comments.
// The single whitespace byte after the token is consumed.
func pgmToken(r *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && len(tok) > 0 {
				return string(tok), nil
			}
			return "", err
		}
		switch {
		case b == '#' && len(tok) == 0:
			if _, err := r.ReadString('\n'); err != nil {
				return "", err
			}
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, b)
		}
	}
}

func decodePGMConfig(r io.Reader) (image.Config, error) {
	h, err := readPGMHeader(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, err
	}
	model := color.GrayModel
	if h.maxVal > 255 {
		model = color.Gray16Model
	}
	return image.Config{ColorModel: model, Width: h.width, Height: h.height}, nil
}

func decodePGM(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	h, err := readPGMHeader(br)
	if err != nil {
		return nil, err
	}

	img := image.NewGray16(image.Rect(0, 0, h.width, h.height))
	scale := 65535.0 / float64(h.maxVal)
	for y := 0; y < h.height; y++ {
		for x := 0; x < h.width; x++ {
			v, err := pgmSample(br, h)
			if err != nil {
				return nil, fmt.Errorf("pgm: pixel (%d,%d): %w", x, y, err)
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(float64(v)*scale + 0.5)})
		}
	}
	return img, nil
}

func pgmSample(r *bufio.Reader, h pgmHeader) (int, error) {
	if h.magic == "P2" {
		tok, err := pgmToken(r)
		if err != nil {
			return 0, err
		}
		return strconv.Atoi(tok)
	}
	if h.maxVal < 256 {
		b, err := r.ReadByte()
		return int(b), err
	}
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int(buf[0])<<8 | int(buf[1]), nil
}

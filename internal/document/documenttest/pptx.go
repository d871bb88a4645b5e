// Package documenttest builds small .pptx archives for tests.
package documenttest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Slide is the text of one slide: paragraphs made of runs.
type Slide [][]string

// BuildPPTX returns a .pptx archive where every string is a paragraph with a
// single run. An empty slide is written as a slide without text shapes.
func BuildPPTX(slides ...[]string) []byte {
	built := make([]Slide, len(slides))
	for i, paragraphs := range slides {
		for _, p := range paragraphs {
			built[i] = append(built[i], []string{p})
		}
	}
	return BuildPPTXRuns(built...)
}

// BuildPPTXRuns returns a .pptx archive with full control over runs.
func BuildPPTXRuns(slides ...Slide) []byte {
	parts := make([]string, len(slides))
	for i, slide := range slides {
		parts[i] = SlideXML(slide)
	}
	return BuildPPTXFromXML(parts...)
}

// BuildPPTXFromXML returns a .pptx archive whose slide parts are the given
// raw XML documents.
func BuildPPTXFromXML(slides ...string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	var ids, rels strings.Builder
	for i := range slides {
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
		fmt.Fprintf(&rels,
			`<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`,
			i+2, i+1)
	}

	write(zw, "[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`)
	write(zw, "ppt/presentation.xml", `<?xml version="1.0" encoding="UTF-8"?>`+
		`<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" `+
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`+
		`<p:sldIdLst>`+ids.String()+`</p:sldIdLst></p:presentation>`)
	write(zw, "ppt/_rels/presentation.xml.rels", `<?xml version="1.0" encoding="UTF-8"?>`+
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`+
		rels.String()+`</Relationships>`)

	for i, slide := range slides {
		write(zw, fmt.Sprintf("ppt/slides/slide%d.xml", i+1), slide)
	}

	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// SlideXML renders one slide part with a single text shape.
func SlideXML(slide Slide) string {
	var body strings.Builder
	if len(slide) > 0 {
		body.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Text"/></p:nvSpPr><p:txBody><a:bodyPr/>`)
		for _, runs := range slide {
			body.WriteString("<a:p>")
			for _, run := range runs {
				body.WriteString("<a:r><a:t>")
				_ = xml.EscapeText(&body, []byte(run))
				body.WriteString("</a:t></a:r>")
			}
			body.WriteString("</a:p>")
		}
		body.WriteString(`</p:txBody></p:sp>`)
	}

	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
		`<p:cSld><p:spTree>` + body.String() + `</p:spTree></p:cSld></p:sld>`
}

// WritePPTX writes a deck built by BuildPPTX into dir and returns its path.
func WritePPTX(t *testing.T, dir, name string, slides ...[]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, BuildPPTX(slides...), 0o600); err != nil {
		t.Fatalf("failed to write pptx fixture: %v", err)
	}
	return path
}

func write(zw *zip.Writer, name, content string) {
	w, err := zw.Create(name)
	if err != nil {
		panic(err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		panic(err)
	}
}

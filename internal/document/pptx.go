package document

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
)

const (
	presentationPart     = "ppt/presentation.xml"
	presentationRelsPart = "ppt/_rels/presentation.xml.rels"

	relationshipsNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	slideRelType    = relationshipsNS + "/slide"

	// maxPartSize caps how much of a single archive entry is read.
	maxPartSize = 64 << 20
)

type presentationXML struct {
	SlideIDs []struct {
		RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type txBodyXML struct {
	Paragraphs []struct {
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"p"`
}

// OpenPPTX parses the .pptx file at path.
func OpenPPTX(path string) (*Presentation, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat document: %w", err)
	}

	return ParsePPTX(f, info.Size())
}

// ParsePPTX reads a presentation from a .pptx archive. Slides are returned in
// the order listed by the presentation part; for each slide the paragraphs of
// its text shapes are collected in document order, including shapes nested
// in groups. Text inside tables and charts is not read.
func ParsePPTX(r io.ReaderAt, size int64) (*Presentation, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: not a pptx archive: %v", ErrDocumentParse, err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[strings.TrimPrefix(f.Name, "/")] = f
	}

	var pres presentationXML
	if err := decodePart(files, presentationPart, &pres); err != nil {
		return nil, err
	}

	var rels relationshipsXML
	if err := decodePart(files, presentationRelsPart, &rels); err != nil {
		return nil, err
	}

	targets := make(map[string]string, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		if rel.Type == slideRelType {
			targets[rel.ID] = resolveTarget("ppt", rel.Target)
		}
	}

	p := &Presentation{Slides: make([]Slide, 0, len(pres.SlideIDs))}
	for i, sid := range pres.SlideIDs {
		partName, ok := targets[sid.RelID]
		if !ok {
			return nil, fmt.Errorf("%w: slide relationship %q not found", ErrDocumentParse, sid.RelID)
		}

		paragraphs, err := readSlide(files, partName)
		if err != nil {
			return nil, err
		}

		p.Slides = append(p.Slides, Slide{Index: i + 1, Paragraphs: paragraphs})
	}

	return p, nil
}

func resolveTarget(base, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(base, target)
}

func openPart(files map[string]*zip.File, name string) (io.ReadCloser, error) {
	f, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing part %s", ErrDocumentParse, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open part %s: %v", ErrDocumentParse, name, err)
	}
	return rc, nil
}

func decodePart(files map[string]*zip.File, name string, v any) error {
	rc, err := openPart(files, name)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := xml.NewDecoder(io.LimitReader(rc, maxPartSize)).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid xml in %s: %v", ErrDocumentParse, name, err)
	}
	return nil
}

// readSlide walks the slide XML and decodes every text body that belongs
// directly to a shape (p:sp). Walking tokens keeps shapes in document order
// even when they are interleaved with groups and pictures.
func readSlide(files map[string]*zip.File, name string) ([]Paragraph, error) {
	rc, err := openPart(files, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec := xml.NewDecoder(io.LimitReader(rc, maxPartSize))
	var (
		stack      []string
		paragraphs []Paragraph
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid xml in %s: %v", ErrDocumentParse, name, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "txBody" && len(stack) > 0 && stack[len(stack)-1] == "sp" {
				var body txBodyXML
				if err := dec.DecodeElement(&body, &el); err != nil {
					return nil, fmt.Errorf("%w: invalid text body in %s: %v", ErrDocumentParse, name, err)
				}
				for _, p := range body.Paragraphs {
					para := Paragraph{Runs: make([]Run, 0, len(p.Runs))}
					for _, r := range p.Runs {
						para.Runs = append(para.Runs, Run{Text: r.Text})
					}
					paragraphs = append(paragraphs, para)
				}
				continue
			}
			stack = append(stack, el.Name.Local)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	return paragraphs, nil
}

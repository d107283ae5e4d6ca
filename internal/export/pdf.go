/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders the paginated screenplay to output formats.
// The PDF exporter follows standard screenplay layout: US Letter, 12pt
// Courier, one rendered page per document page so PDF page numbers match
// the editor's pagination.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"goscreenwriter/internal/pagedoc"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
)

// Layout constants in points (72 pt per inch). Element indents are measured
// from the left paper edge, per common screenplay submission format.
const (
	paperW = 612.0 // US Letter
	paperH = 792.0

	marginTop   = 72.0
	marginLeft  = 108.0 // 1.5" binding margin
	marginRight = 72.0

	lineHeight = 12.0

	indentSpeaker       = 266.0 // 3.7"
	indentParenthetical = 223.0 // 3.1"
	indentDialog        = 180.0 // 2.5"

	widthDialog        = 252.0 // 3.5"
	widthParenthetical = 180.0
)

// PDFOptions controls PDF export behavior.
// Pages selects 0-based document pages; empty means all.
type PDFOptions struct {
	Title       string
	Author      string
	TitlePage   bool
	PageNumbers bool
	Pages       []int
}

// WritePDF renders the paginated document to a PDF at outPath.
// A relative outPath is placed under the project's exports folder.
func WritePDF(ph *storage.ProjectHandle, store *pagedoc.Store, outPath string, opt PDFOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	if store == nil {
		return fmt.Errorf("store is nil")
	}
	title := opt.Title
	if title == "" {
		title = ph.Project.Title
	}
	author := opt.Author
	if author == "" {
		author = ph.Project.Author
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: paperW, Ht: paperH},
		OrientationStr: "",
	})
	pdf.SetTitle(title, true)
	pdf.SetAuthor(author, true)
	pdf.SetAutoPageBreak(false, 0)
	// Courier keeps the monospaced grid that pagination is counted against.
	pdf.SetFont("Courier", "", 12)

	if opt.TitlePage {
		writeTitlePage(pdf, title, author, ph.Project.Contact)
	}

	docPages := store.Pages()
	for n, pidx := range pageIndexes(len(docPages), opt.Pages) {
		if pidx < 0 || pidx >= len(docPages) {
			continue
		}
		pg := docPages[pidx]
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: paperW, Ht: paperH})
		if opt.PageNumbers && (n > 0 || opt.TitlePage) {
			pdf.SetFont("Courier", "", 12)
			num := fmt.Sprintf("%d.", pidx+1)
			pdf.Text(paperW-marginRight-textWidth(pdf, num), marginTop-24, num)
		}
		y := marginTop
		for _, l := range pg.Lines {
			y = writeLine(pdf, l, y)
		}
	}

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(ph.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeTitlePage(pdf *gofpdf.Fpdf, title, author, contact string) {
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: paperW, Ht: paperH})
	pdf.SetFont("Courier", "", 12)
	center := func(y float64, s string) {
		pdf.Text((paperW-textWidth(pdf, s))/2, y, s)
	}
	center(paperH*0.38, strings.ToUpper(title))
	if author != "" {
		center(paperH*0.38+3*lineHeight, "written by")
		center(paperH*0.38+5*lineHeight, author)
	}
	if contact != "" {
		pdf.Text(marginLeft, paperH-marginTop, contact)
	}
}

// writeLine renders one script line at vertical position y and returns the
// position for the next line. Formats map to the standard element indents;
// untagged and unknown-tag lines fall back to the action column.
func writeLine(pdf *gofpdf.Fpdf, l script.Line, y float64) float64 {
	left := marginLeft
	width := paperW - marginLeft - marginRight
	text := l.Text
	style := ""

	if !l.Untagged {
		switch l.Format {
		case script.FormatHeader:
			text = strings.ToUpper(text)
			style = "B"
		case script.FormatSpeaker:
			left = indentSpeaker
			width = paperW - indentSpeaker - marginRight
			text = strings.ToUpper(text)
		case script.FormatParenthetical:
			left = indentParenthetical
			width = widthParenthetical
			if text != "" && !strings.HasPrefix(text, "(") {
				text = "(" + text + ")"
			}
		case script.FormatDialog:
			left = indentDialog
			width = widthDialog
		case script.FormatTransition:
			text = strings.ToUpper(text)
			pdf.SetFont("Courier", "", 12)
			return writeRightAligned(pdf, text, y)
		case script.FormatChapterBreak:
			// break markers consume no vertical space; the page split
			// already happened in the store
			return y
		}
	}

	pdf.SetFont("Courier", style, 12)
	for _, seg := range wrap(pdf, text, width) {
		pdf.Text(left, y, seg)
		y += lineHeight
	}
	if text == "" {
		y += lineHeight
	}
	return y
}

func writeRightAligned(pdf *gofpdf.Fpdf, text string, y float64) float64 {
	pdf.Text(paperW-marginRight-textWidth(pdf, text), y, text)
	return y + lineHeight
}

// wrap splits text into segments that fit the given width. Courier is
// monospaced, so width translates to a fixed rune budget per segment.
func wrap(pdf *gofpdf.Fpdf, text string, width float64) []string {
	if text == "" {
		return nil
	}
	if textWidth(pdf, text) <= width {
		return []string{text}
	}
	charW := textWidth(pdf, "M")
	perLine := int(width / charW)
	if perLine < 1 {
		perLine = 1
	}
	var out []string
	words := strings.Fields(text)
	cur := ""
	for _, w := range words {
		switch {
		case cur == "":
			cur = w
		case len(cur)+1+len(w) <= perLine:
			cur += " " + w
		default:
			out = append(out, cur)
			cur = w
		}
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func textWidth(pdf *gofpdf.Fpdf, s string) float64 {
	return pdf.GetStringWidth(s)
}

func pageIndexes(total int, specific []int) []int {
	if len(specific) == 0 {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	return specific
}

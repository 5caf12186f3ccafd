/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders parsed scripts into distributable formats.
// The PDF exporter lays out a screenplay-style page: Courier 12pt on
// US Letter with the customary indents for characters and dialogue.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"fountainflow/internal/ast"
	"fountainflow/internal/language"
	"fountainflow/internal/parser"
	"fountainflow/internal/storage"
)

// Page geometry in points. US Letter with a 1.5in binding margin on the
// left, 1in everywhere else, following screenplay convention.
const (
	pageW       = 612.0
	pageH       = 792.0
	marginLeft  = 108.0
	marginRight = 72.0
	marginTop   = 72.0
	marginBot   = 72.0

	fontSize   = 12.0
	lineHeight = 14.4 // 12pt Courier, single spaced

	characterIndent     = 158.0 // from left margin
	dialogueIndent      = 72.0
	dialogueWidth       = 252.0
	parentheticalIndent = 115.0
	choiceIndent        = 36.0
)

// PDFOptions controls screenplay PDF export.
type PDFOptions struct {
	Title       string
	Author      string
	PageNumbers bool
}

// ExportScriptPDF renders one script of the workspace to a PDF at outPath.
// A relative outPath lands under the workspace exports folder.
func ExportScriptPDF(ph *storage.ProjectHandle, scriptRel string, outPath string, opt PDFOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	nodes, err := parseScript(ph, scriptRel)
	if err != nil {
		return err
	}
	title := opt.Title
	if title == "" {
		title = ph.Project.Name
	}
	author := opt.Author
	if author == "" {
		author = ph.Project.Metadata.Author
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetTitle(title, true)
	if author != "" {
		pdf.SetAuthor(author, true)
	}
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBot)
	if opt.PageNumbers {
		pdf.SetFooterFunc(func() {
			pdf.SetY(-marginBot + 14)
			pdf.SetFont("Courier", "", 10)
			pdf.CellFormat(0, 10, fmt.Sprintf("%d.", pdf.PageNo()), "", 0, "R", false, 0, "")
		})
	}
	pdf.AddPage()

	// Title page block
	pdf.SetFont("Courier", "B", 18)
	pdf.SetY(pageH / 3)
	pdf.CellFormat(0, 24, strings.ToUpper(title), "", 1, "C", false, 0, "")
	if author != "" {
		pdf.SetFont("Courier", "", fontSize)
		pdf.CellFormat(0, lineHeight, "by", "", 1, "C", false, 0, "")
		pdf.CellFormat(0, lineHeight, author, "", 1, "C", false, 0, "")
	}
	pdf.AddPage()

	pdf.SetFont("Courier", "", fontSize)
	r := &pdfRenderer{pdf: pdf}
	r.renderNodes(nodes)

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

func parseScript(ph *storage.ProjectHandle, scriptRel string) ([]ast.Node, error) {
	text, err := storage.ReadScript(ph, scriptRel)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", scriptRel, err)
	}
	def := scriptLanguage(ph, scriptRel)
	if def == nil {
		return nil, fmt.Errorf("no language for script %s", scriptRel)
	}
	return parser.Parse(text, def), nil
}

// scriptLanguage resolves a script's language from the manifest entry when
// present, otherwise from the file extension.
func scriptLanguage(ph *storage.ProjectHandle, scriptRel string) *language.Definition {
	reg := language.Default()
	for _, s := range ph.Project.Scripts {
		if s.Path == scriptRel && s.Language != "" {
			if def, ok := reg.ByName(s.Language); ok {
				return def
			}
		}
	}
	if def, ok := reg.ByExtension(filepath.Ext(scriptRel)); ok {
		return def
	}
	return nil
}

type pdfRenderer struct {
	pdf *gofpdf.Fpdf
}

func (r *pdfRenderer) renderNodes(nodes []ast.Node) {
	for _, n := range nodes {
		switch v := n.(type) {
		case *ast.Frontmatter:
			// metadata lives on the title page; skip in the body
		case *ast.SceneHeading:
			r.blank()
			r.line(0, strings.ToUpper(v.Text), "B")
			r.blank()
		case *ast.SectionHeading:
			r.blank()
			r.line(0, strings.ToUpper(v.Text), "B")
			r.blank()
		case *ast.Action:
			r.wrapped(0, pageW-marginLeft-marginRight, v.Text, "")
			r.blank()
		case *ast.Dialogue:
			r.line(characterIndent, strings.ToUpper(v.Character), "")
			if v.Parenthetical != "" {
				r.line(parentheticalIndent, "("+v.Parenthetical+")", "")
			}
			r.wrapped(dialogueIndent, dialogueWidth, v.Text, "")
			r.blank()
		case *ast.Decision:
			r.wrapped(0, pageW-marginLeft-marginRight, v.Text, "B")
		case *ast.Choice:
			label := v.Label
			if label == "" {
				label = v.Text
			}
			r.line(choiceIndent, fmt.Sprintf("> %s  [%s]", label, v.Target), "")
		case *ast.Jump:
			r.line(choiceIndent, fmt.Sprintf("-> %s", v.Target), "")
			r.blank()
		case *ast.Asset:
			r.line(0, fmt.Sprintf("[%s: %s]", strings.ToUpper(v.Type), v.Data), "I")
		case *ast.StateChange:
			r.line(0, "[~ "+v.Expression+"]", "I")
		case *ast.Logic:
			// control flow carries no prose
		}
	}
}

func (r *pdfRenderer) line(indent float64, text, style string) {
	r.pdf.SetFont("Courier", style, fontSize)
	r.pdf.SetX(marginLeft + indent)
	r.pdf.CellFormat(0, lineHeight, text, "", 1, "L", false, 0, "")
	r.pdf.SetFont("Courier", "", fontSize)
}

func (r *pdfRenderer) wrapped(indent, width float64, text, style string) {
	r.pdf.SetFont("Courier", style, fontSize)
	r.pdf.SetX(marginLeft + indent)
	r.pdf.MultiCell(width, lineHeight, text, "", "L", false)
	r.pdf.SetFont("Courier", "", fontSize)
}

func (r *pdfRenderer) blank() {
	r.pdf.Ln(lineHeight)
}

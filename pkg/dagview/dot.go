package dagview

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"
)

// laneColors is the fill palette cycled across lanes.
var laneColors = []string{
	"#DCEBFE", // blue
	"#DFF5E1", // green
	"#FDEBD0", // amber
	"#F5DCEB", // pink
	"#E8E0F5", // violet
	"#E0F5F2", // teal
}

// ToDOT converts a projected view to Graphviz DOT. Commits are boxes
// colored by lane, parent edges point downward, and merge edges are drawn
// dashed so the second parent stands out.
func ToDOT(v *View) string {
	var buf bytes.Buffer
	buf.WriteString("digraph commits {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range v.Nodes {
		color := laneColors[n.Lane%len(laneColors)]
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q];\n",
			n.CommitID, nodeLabel(n), color)
	}

	buf.WriteString("\n")
	for _, n := range v.Nodes {
		for i, p := range n.ParentIDs {
			if i == 0 {
				fmt.Fprintf(&buf, "  %q -> %q;\n", p, n.CommitID)
			} else {
				fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", p, n.CommitID)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n Node) string {
	head := fmt.Sprintf("%s v%d", n.BranchName, n.Version)
	msg := n.Message
	if len(msg) > 40 {
		msg = msg[:37] + "..."
	}
	return head + "\n" + msg
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the svg element so the viewBox starts at the
// origin and width/height match it, which keeps embedding predictable.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

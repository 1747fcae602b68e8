package services

import (
	"strings"

	"github.com/iota-uz/orgchart/pkg/layered"
)

type Direction string

const (
	DirectionTB Direction = "TB"
	DirectionLR Direction = "LR"
)

// ParseDirection accepts TB or LR in any case; anything else is invalid.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case DirectionTB:
		return DirectionTB, nil
	case DirectionLR:
		return DirectionLR, nil
	default:
		return "", ErrInvalidInput
	}
}

// LayoutOptions sizes nodes and spacing. Zero fields take the direction's
// defaults.
type LayoutOptions struct {
	NodeWidth  float64
	NodeHeight float64
	NodeSep    float64
	RankSep    float64
}

func DefaultLayoutOptions(dir Direction) LayoutOptions {
	if dir == DirectionLR {
		return LayoutOptions{NodeWidth: 320, NodeHeight: 110, NodeSep: 90, RankSep: 140}
	}
	return LayoutOptions{NodeWidth: 240, NodeHeight: 150, NodeSep: 60, RankSep: 100}
}

func (o LayoutOptions) withDefaults(dir Direction) LayoutOptions {
	d := DefaultLayoutOptions(dir)
	if o.NodeWidth <= 0 {
		o.NodeWidth = d.NodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = d.NodeHeight
	}
	if o.NodeSep <= 0 {
		o.NodeSep = d.NodeSep
	}
	if o.RankSep <= 0 {
		o.RankSep = d.RankSep
	}
	return o
}

// LayoutChart returns a copy of chart with node positions and sizes set.
// Positions are top-left corners.
func LayoutChart(chart Chart, dir Direction, opts LayoutOptions) (Chart, error) {
	if dir == "" {
		dir = DirectionTB
	}
	opts = opts.withDefaults(dir)

	out := chart
	out.Direction = dir
	out.Nodes = make([]RenderNode, len(chart.Nodes))
	out.Edges = append([]RenderEdge{}, chart.Edges...)
	out.Roots = append([]string{}, chart.Roots...)

	nodes := make([]layered.Node, len(chart.Nodes))
	for i, n := range chart.Nodes {
		nodes[i] = layered.Node{ID: n.ID, Width: opts.NodeWidth, Height: opts.NodeHeight}
	}
	edges := make([]layered.Edge, len(chart.Edges))
	for i, e := range chart.Edges {
		edges[i] = layered.Edge{From: e.SourceID, To: e.TargetID}
	}

	res, err := layered.Layout(nodes, edges, layered.Options{
		Direction: layered.Direction(dir),
		NodeSep:   opts.NodeSep,
		RankSep:   opts.RankSep,
	})
	if err != nil {
		return Chart{}, err
	}

	for i, n := range chart.Nodes {
		c := res.Centers[n.ID]
		n.Width = opts.NodeWidth
		n.Height = opts.NodeHeight
		n.Position = Position{X: c.X - opts.NodeWidth/2, Y: c.Y - opts.NodeHeight/2}
		out.Nodes[i] = n
	}
	out.Width = res.Width
	out.Height = res.Height
	return out, nil
}

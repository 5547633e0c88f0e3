// Package validation checks a workflow graph snapshot for structural and
// semantic problems before it is saved or published. It never changes the
// graph.
package validation

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/stockflow/pkg/branch"
	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/registry"
)

type Validator struct {
	logger   *slog.Logger
	registry *registry.Registry
}

func New(reg *registry.Registry, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Validator{
		logger:   logger.With("module", "validator"),
		registry: reg,
	}
}

// Validate runs every check in order and returns the collected issues.
func (v *Validator) Validate(graph models.Graph) Report {
	c := &run{
		registry: v.registry,
		graph:    graph,
		nodes:    make(map[string]models.Node, len(graph.Nodes)),
	}

	c.checkStructure()
	c.checkEntryPoint()
	c.checkFlow()
	c.checkBranches()
	c.checkCompleteness()
	c.checkTermination()

	report := Report{Issues: c.issues}

	v.logger.Debug("Workflow validated",
		"nodes", len(graph.Nodes),
		"edges", len(graph.Edges),
		"errors", len(report.Errors()),
		"warnings", len(report.Warnings()),
	)

	return report
}

// run holds the state of one validation pass.
type run struct {
	registry *registry.Registry
	graph    models.Graph
	issues   []models.Issue

	nodes    map[string]models.Node
	order    []string            // executable node ids, graph order
	next     map[string][]string // execution successors
	prev     map[string][]string // execution predecessors
	flow     []models.Edge       // structurally valid edges between executable nodes
	triggers []string
	reached  map[string]bool
}

func (c *run) add(issue models.Issue) {
	c.issues = append(c.issues, issue)
}

func (c *run) errorf(code, nodeID, edgeID, format string, args ...any) {
	c.add(models.Issue{
		Severity: models.SeverityError,
		Code:     code,
		NodeID:   nodeID,
		EdgeID:   edgeID,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *run) warnf(code, nodeID, format string, args ...any) {
	c.add(models.Issue{
		Severity: models.SeverityWarning,
		Code:     code,
		NodeID:   nodeID,
		Message:  fmt.Sprintf(format, args...),
	})
}

// checkStructure reports referential problems and builds the execution
// adjacency from the edges that survive them. Text nodes and the edges
// touching them take no part in execution.
func (c *run) checkStructure() {
	for _, node := range c.graph.Nodes {
		if _, seen := c.nodes[node.ID]; seen {
			c.errorf(models.IssueDuplicateID, node.ID, "", "node id %q is used more than once", node.ID)

			continue
		}

		c.nodes[node.ID] = node

		if !c.registry.Has(node.Kind) {
			c.errorf(models.IssueUnknownKind, node.ID, "", "node kind %q is not supported", node.Kind)

			continue
		}

		if node.Config == nil || node.Config.Kind() != node.Kind {
			c.errorf(models.IssueKindMismatch, node.ID, "", "configuration does not belong to a %s node", node.Kind.DisplayName())

			continue
		}

		if node.IsAnnotation() {
			continue
		}

		c.order = append(c.order, node.ID)

		if node.Kind == models.KindTrigger {
			c.triggers = append(c.triggers, node.ID)
		}
	}

	c.next = make(map[string][]string, len(c.order))
	c.prev = make(map[string][]string, len(c.order))

	edgeIDs := make(map[string]bool, len(c.graph.Edges))
	branches := make(map[string]string)

	for _, edge := range c.graph.Edges {
		if edgeIDs[edge.ID] {
			c.errorf(models.IssueDuplicateID, "", edge.ID, "edge id %q is used more than once", edge.ID)

			continue
		}

		edgeIDs[edge.ID] = true

		source, sourceOK := c.nodes[edge.Source]
		target, targetOK := c.nodes[edge.Target]

		if !sourceOK || !targetOK {
			missing := edge.Source
			if sourceOK {
				missing = edge.Target
			}

			c.errorf(models.IssueDanglingEdge, "", edge.ID, "edge points to missing node %q", missing)

			continue
		}

		if source.IsTerminal() {
			c.errorf(models.IssueTerminalOutgoing, source.ID, edge.ID, "end node %q has an outgoing edge", source.Label)

			continue
		}

		if source.Kind == models.KindCondition {
			if !branch.IsBranchHandle(edge.SourceHandle) {
				c.errorf(models.IssueInvalidHandle, source.ID, edge.ID,
					"condition output %q is neither true nor false", edge.SourceHandle)

				continue
			}

			key := source.ID + "/" + edge.SourceHandle
			if first, taken := branches[key]; taken {
				c.errorf(models.IssueDuplicateBranch, source.ID, edge.ID,
					"%s branch is already connected by edge %q", edge.SourceHandle, first)

				continue
			}

			branches[key] = edge.ID
		}

		if !c.executable(source) || !c.executable(target) {
			continue
		}

		c.flow = append(c.flow, edge)
		c.next[source.ID] = append(c.next[source.ID], target.ID)
		c.prev[target.ID] = append(c.prev[target.ID], source.ID)
	}
}

func (c *run) executable(node models.Node) bool {
	return !node.IsAnnotation() && c.registry.Has(node.Kind) && node.Config != nil && node.Config.Kind() == node.Kind
}

func (c *run) checkEntryPoint() {
	switch len(c.triggers) {
	case 0:
		c.errorf(models.IssueNoEntryPoint, "", "", "workflow has no entry point: add a trigger node")
	case 1:
	default:
		c.errorf(models.IssueAmbiguousEntryPoint, c.triggers[1], "",
			"workflow has ambiguous entry point: %d trigger nodes (%s)",
			len(c.triggers), strings.Join(c.triggers, ", "))
	}

	c.reached = walk(c.triggers, c.next)
}

// checkFlow warns about dead ends and about nodes the trigger never reaches.
func (c *run) checkFlow() {
	for _, id := range c.order {
		node := c.nodes[id]

		if !node.IsTerminal() && len(c.next[id]) == 0 {
			c.warnf(models.IssueDeadEnd, id, "%q has no outgoing edge", node.Label)
		}
	}

	if len(c.triggers) == 0 {
		return
	}

	for _, id := range c.order {
		if !c.reached[id] {
			c.warnf(models.IssueUnreachable, id, "%q cannot be reached from the trigger", c.nodes[id].Label)
		}
	}
}

// checkBranches requires both outputs of every condition to lead to an
// executable node. A branch ending on a text annotation counts as missing.
func (c *run) checkBranches() {
	for _, id := range c.order {
		node := c.nodes[id]
		if node.Kind != models.KindCondition {
			continue
		}

		pair := branch.Branches(id, c.flow)

		for _, handle := range pair.Missing() {
			c.errorf(models.IssueMissingBranch, id, "", "condition %q has no %s branch", node.Label, handle)
		}
	}
}

// checkCompleteness reports missing required fields on every node the
// trigger reaches.
func (c *run) checkCompleteness() {
	for _, id := range c.order {
		if !c.reached[id] {
			continue
		}

		node := c.nodes[id]

		for _, fieldErr := range c.registry.CheckComplete(node.Config) {
			c.add(models.Issue{
				Severity: models.SeverityError,
				Code:     models.IssueIncompleteConfig,
				NodeID:   id,
				Field:    fieldErr.Field,
				Message:  fmt.Sprintf("%q: %s %s", node.Label, fieldErr.Field, fieldErr.Msg),
			})
		}
	}
}

// checkTermination warns about nodes from which no end node can be reached.
// Dead ends are already reported by checkFlow.
func (c *run) checkTermination() {
	var ends []string

	for _, id := range c.order {
		if node := c.nodes[id]; node.IsTerminal() {
			ends = append(ends, id)
		}
	}

	finishing := walk(ends, c.prev)
	loops := c.loops()

	for _, id := range c.order {
		if finishing[id] || len(c.next[id]) == 0 {
			continue
		}

		node := c.nodes[id]

		if loop, ok := loops[id]; ok {
			c.warnf(models.IssueNoPathToEnd, id,
				"%q cannot reach an end node: it is caught in a loop through %s", node.Label, c.describeLoop(loop))

			continue
		}

		c.warnf(models.IssueNoPathToEnd, id, "%q cannot reach an end node", node.Label)
	}
}

func (c *run) describeLoop(loop []string) string {
	labels := make([]string, 0, len(loop))

	for _, id := range loop {
		node := c.nodes[id]
		labels = append(labels, fmt.Sprintf("%q (%s)", node.Label, node.Kind.DisplayName()))
	}

	return strings.Join(labels, ", ")
}

// walk returns every node reachable from roots through adjacency, roots
// included.
func walk(roots []string, adjacency map[string][]string) map[string]bool {
	seen := make(map[string]bool)
	queue := append([]string(nil), roots...)

	for _, root := range roots {
		seen[root] = true
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, neighbour := range adjacency[id] {
			if !seen[neighbour] {
				seen[neighbour] = true
				queue = append(queue, neighbour)
			}
		}
	}

	return seen
}

package resolution

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/supportops/caseflow/pipeline/nodes"
	rolesx "github.com/supportops/caseflow/pipeline/roles"
)

func (s *Service) compileResolveGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_case",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateCase(in, s.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_case: %w", err)
	}

	if err := graph.AddLambdaNode("log_start",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LogStart(ctx, in, s.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node log_start: %w", err)
	}

	sequence := rolesx.Sequence()
	roleNodes := make([]string, 0, len(sequence))
	for _, def := range sequence {
		def := def
		name := "run_" + string(def.Role)
		if err := graph.AddLambdaNode(name,
			compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
				return nodex.RunRole(ctx, in, def, s.models, s.retriever, s.store)
			}),
		); err != nil {
			return nil, fmt.Errorf("add node %s: %w", name, err)
		}
		roleNodes = append(roleNodes, name)
	}

	if err := graph.AddLambdaNode("summarize",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Summarize(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node summarize: %w", err)
	}

	if err := graph.AddLambdaNode("complete_case",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.CompleteCase(ctx, in, s.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node complete_case: %w", err)
	}

	chain := append([]string{compose.START, "validate_case", "log_start"}, roleNodes...)
	chain = append(chain, "summarize", "complete_case", compose.END)
	for i := 0; i+1 < len(chain); i++ {
		if err := graph.AddEdge(chain[i], chain[i+1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", chain[i], chain[i+1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("resolution.resolve_case"))
	if err != nil {
		return nil, fmt.Errorf("compile resolution graph: %w", err)
	}
	return runner, nil
}

package github

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// SkippedDirectory is never descended into or listed.
const SkippedDirectory = "node_modules"

const treeFanOut = 8

type TreeNode struct {
	Entry
	Children []TreeNode `json:"children,omitempty"`
}

// TreeOptions controls Tree.
type TreeOptions struct {
	// DirectoriesOnly drops files from the result.
	DirectoriesOnly bool
}

// Tree walks path recursively at ref, fetching sibling directories
// concurrently. Any failed listing aborts the walk.
func (g *Gateway) Tree(ctx context.Context, token, owner, repo, path, ref string, opts TreeOptions) ([]TreeNode, error) {
	entries, err := g.ListDirectory(ctx, token, owner, repo, path, ref)
	if err != nil {
		return nil, err
	}

	nodes := make([]TreeNode, 0, len(entries))
	for _, e := range entries {
		if e.Name == SkippedDirectory {
			continue
		}
		if opts.DirectoriesOnly && e.Type != "dir" {
			continue
		}
		nodes = append(nodes, TreeNode{Entry: e})
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(treeFanOut)
	for i := range nodes {
		if nodes[i].Type != "dir" {
			continue
		}
		i := i
		eg.Go(func() error {
			children, err := g.Tree(egCtx, token, owner, repo, nodes[i].Path, ref, opts)
			if err != nil {
				return err
			}
			nodes[i].Children = children
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return nodes, nil
}

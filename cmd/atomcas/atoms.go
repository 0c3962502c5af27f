package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/atomcas/pkg/backend"
	"github.com/cuemby/atomcas/pkg/hypergraph"
)

func openBackend(cmd *cobra.Command) (*backend.Backend, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return backend.Open(cmd.Context(), cfg.BackendURI, cfg, types)
}

// nodeAtomFlags adds the --type/--name pair every node-addressed
// command shares.
func nodeAtomFlags(cmd *cobra.Command) {
	cmd.Flags().String("type", "ConceptNode", "Atom type name")
	cmd.Flags().String("name", "", "Node atom name (required)")
	_ = cmd.MarkFlagRequired("name")
}

func nodeAtomFromFlags(cmd *cobra.Command) (*hypergraph.Atom, error) {
	typeName, _ := cmd.Flags().GetString("type")
	name, _ := cmd.Flags().GetString("name")
	t, ok := types.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("unknown atom type %q", typeName)
	}
	return hypergraph.NewNode(t, name), nil
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Store a node atom (spec store_atom)",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		a, err := nodeAtomFromFlags(cmd)
		if err != nil {
			return err
		}
		synchronous, _ := cmd.Flags().GetBool("sync")
		if err := b.StoreAtom(cmd.Context(), a, synchronous); err != nil {
			return err
		}
		fmt.Printf("stored: %s\n", a.Name)
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch a node atom's current stored state by structural key",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		a, err := nodeAtomFromFlags(cmd)
		if err != nil {
			return err
		}
		got, err := b.FetchAtom(cmd.Context(), a)
		if err != nil {
			return err
		}
		printAtom(got)
		return nil
	},
}

var fetchIDCmd = &cobra.Command{
	Use:   "fetch-id GUID",
	Short: "Fetch the atom published at the given GUID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		got, err := b.FetchAtomByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printAtom(got)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a node atom from the workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		a, err := nodeAtomFromFlags(cmd)
		if err != nil {
			return err
		}
		recursive, _ := cmd.Flags().GetBool("recursive")
		removed, err := b.RemoveAtom(cmd.Context(), a, recursive)
		if err != nil {
			return err
		}
		fmt.Printf("removed: %t\n", removed)
		return nil
	},
}

var incomingCmd = &cobra.Command{
	Use:   "incoming",
	Short: "List atoms with the given node atom in their outgoing set",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		a, err := nodeAtomFromFlags(cmd)
		if err != nil {
			return err
		}
		typeFilter, _ := cmd.Flags().GetString("type-filter")

		var set []*hypergraph.Atom
		if typeFilter == "" {
			set, err = b.GetIncomingSet(cmd.Context(), a)
		} else {
			set, err = b.GetIncomingByType(cmd.Context(), a, typeFilter)
		}
		if err != nil {
			return err
		}
		for _, m := range set {
			printAtom(m)
		}
		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load [root]",
	Short: "Load every atom reachable from root (defaults to the workspace root)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		root := b.GetWorkspaceCID()
		if len(args) == 1 {
			root = args[0]
		}
		atoms, err := b.LoadWorkspace(cmd.Context(), root)
		if err != nil {
			return err
		}
		for _, a := range atoms {
			printAtom(a)
		}
		return nil
	},
}

func printAtom(a *hypergraph.Atom) {
	if a.IsNode() {
		fmt.Printf("(%s %q)\n", a.Type.Name, a.Name)
		return
	}
	fmt.Printf("(%s", a.Type.Name)
	for _, child := range a.Outgoing {
		if child.IsNode() {
			fmt.Printf(" %q", child.Name)
		} else {
			fmt.Printf(" <%s>", child.Type.Name)
		}
	}
	fmt.Println(")")
}

func init() {
	nodeAtomFlags(storeCmd)
	storeCmd.Flags().Bool("sync", false, "Store synchronously instead of via the write-back queue")

	nodeAtomFlags(fetchCmd)

	nodeAtomFlags(removeCmd)
	removeCmd.Flags().Bool("recursive", false, "Recursively remove incoming referents first")

	nodeAtomFlags(incomingCmd)
	incomingCmd.Flags().String("type-filter", "", "Restrict results to this atom type")
}

package lang

func init() {
	Register(&Spec{
		Language:           Python,
		FileExtensions:     []string{".py", ".pyi"},
		FunctionNodeTypes:  []string{"function_definition"},
		ContainerNodeTypes: []string{"class_definition"},
		ContainerKind:      map[string]Kind{"class_definition": KindClass},
		ConstantNodeTypes:  []string{"expression_statement"},
		ModuleNodeTypes:    []string{"module"},
		VariableNodeTypes:  []string{"assignment", "augmented_assignment"},
	})
}

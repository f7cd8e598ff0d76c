package lang

func init() {
	Register(&Spec{
		Language:           JavaScript,
		FileExtensions:     []string{".js", ".jsx", ".mjs", ".cjs"},
		FunctionNodeTypes:  []string{"function_declaration", "generator_function_declaration", "method_definition"},
		ContainerNodeTypes: []string{"class_declaration"},
		ContainerKind:      map[string]Kind{"class_declaration": KindClass},
		ConstantNodeTypes:  []string{"lexical_declaration"},
		ModuleNodeTypes:    []string{"program"},
		VariableNodeTypes:  []string{"lexical_declaration", "variable_declaration"},
	})
}

package compiler

import "swiftscript/ast"

// compileMethod compiles one method/initializer body into its own
// FunctionPrototype, with an implicit `self` bound to local slot 0 (spec
// §4.5.2: "Methods compile into a nested function prototype whose first
// parameter is the implicit self").
func (c *Compiler) compileMethod(m ast.FuncDecl, typeName string, properties map[string]bool, hasSuper, inStruct bool) int {
	child := newChildCompiler(c, m.Name)
	child.allowImplicitSelfProperty = true
	child.currentClassProperties = properties
	child.currentClassHasSuper = hasSuper
	child.inStructMethod = inStruct
	child.inMutatingMethod = m.IsMutating
	child.currentTypeName = typeName
	child.isInitializer = m.IsInit
	child.isMethod = true

	child.beginScope()
	child.declareLocal("self")
	for _, p := range m.Params {
		child.declareLocal(p.Name)
	}
	child.compileBlock(m.Body)
	child.emit(OP_NIL)
	child.emit(OP_RETURN)

	proto := FunctionPrototype{
		Name:          typeName + "::" + m.Name,
		HasReceiver:   true,
		IsInitializer: m.IsInit,
		IsMutating:    m.IsMutating,
		Code:          child.code,
		LineInfo:      child.lineInfo,
		MaxStackDepth: child.maxStackDepth,
	}
	for _, p := range m.Params {
		proto.ParamNames = append(proto.ParamNames, p.Name)
		proto.ParamLabels = append(proto.ParamLabels, p.Label)
		proto.ParamDefaults = append(proto.ParamDefaults, compileDefault(child, p.Default))
	}
	return c.addFunction(proto)
}

// compileAccessorBody compiles a computed property's get/set body, or a
// willSet/didSet observer body, as its own zero/one-param method.
func (c *Compiler) compileAccessorBody(name string, paramName string, body []ast.Stmt, typeName string, properties map[string]bool) int {
	child := newChildCompiler(c, name)
	child.allowImplicitSelfProperty = true
	child.currentClassProperties = properties
	child.currentTypeName = typeName
	child.isMethod = true

	child.beginScope()
	child.declareLocal("self")
	if paramName != "" {
		child.declareLocal(paramName)
	}
	child.compileBlock(body)
	child.emit(OP_NIL)
	child.emit(OP_RETURN)

	proto := FunctionPrototype{
		Name:          typeName + "::" + name,
		HasReceiver:   true,
		Code:          child.code,
		LineInfo:      child.lineInfo,
		MaxStackDepth: child.maxStackDepth,
	}
	if paramName != "" {
		proto.ParamNames = []string{paramName}
		proto.ParamLabels = []string{""}
		proto.ParamDefaults = []DefaultValue{{}}
	}
	return c.addFunction(proto)
}

func collectPropertyNames(props []ast.VarDecl) map[string]bool {
	names := map[string]bool{}
	for _, p := range props {
		names[p.Name.Lexeme] = true
	}
	return names
}

// compileProperty emits one property's `DEFINE_PROPERTY*` instruction:
// computed properties get DEFINE_COMPUTED_PROPERTY; observed stored
// properties get DEFINE_PROPERTY_WITH_OBSERVERS; plain stored properties
// get DEFINE_PROPERTY (per spec §4.5.1/§4.5.2).
func (c *Compiler) compileProperty(p ast.VarDecl, typeName string, properties map[string]bool, isStatic bool) {
	si := c.addString(p.Name.Lexeme)
	var flags int
	if p.IsConst {
		flags |= PropertyFlagLet
	}
	if isStatic {
		flags |= PropertyFlagStatic
	}

	switch {
	case p.Getter != nil:
		getterFi := c.compileAccessorBody("get:"+p.Name.Lexeme, "", p.Getter, typeName, properties)
		setterFi := NoLabel
		if p.Setter != nil {
			setterFi = c.compileAccessorBody("set:"+p.Name.Lexeme, setterParamName(p), p.Setter, typeName, properties)
		}
		c.emitAt(p.Name.Line, OP_DEFINE_COMPUTED_PROPERTY, si, getterFi, setterFi)
	case p.WillSet != nil || p.DidSet != nil:
		if p.Initializer != nil {
			c.compileExpr(p.Initializer)
		} else {
			c.emit(OP_NIL)
		}
		willFi := NoLabel
		if p.WillSet != nil {
			willFi = c.compileAccessorBody(p.Name.Lexeme+"_willSet", "newValue", p.WillSet, typeName, properties)
		}
		didFi := NoLabel
		if p.DidSet != nil {
			didFi = c.compileAccessorBody(p.Name.Lexeme+"_didSet", "oldValue", p.DidSet, typeName, properties)
		}
		c.emitAt(p.Name.Line, OP_DEFINE_PROPERTY_WITH_OBSERVERS, si, flags, willFi, didFi)
	default:
		if p.Initializer != nil {
			c.compileExpr(p.Initializer)
		} else {
			c.emit(OP_NIL)
		}
		c.emitAt(p.Name.Line, OP_DEFINE_PROPERTY, si, flags)
	}
}

func setterParamName(p ast.VarDecl) string {
	if p.SetterParam != "" {
		return p.SetterParam
	}
	return "newValue"
}

// VisitClassDecl implements spec §4.5.2's class pattern: optional
// superclass GET + CLASS + INHERIT, then properties and methods, then
// storing the class into its slot.
func (c *Compiler) VisitClassDecl(n ast.ClassDecl) any {
	hasSuper := n.Superclass != ""
	if hasSuper {
		c.emit(OP_GET_GLOBAL, c.addString(n.Superclass))
	}
	c.emit(OP_CLASS, c.addString(n.Name))
	if hasSuper {
		c.emit(OP_INHERIT)
	}

	properties := collectPropertyNames(n.Properties)
	for _, p := range n.Properties {
		c.compileProperty(p, n.Name, properties, false)
	}
	for _, m := range n.Methods {
		fi := c.compileMethod(m, n.Name, properties, hasSuper, false)
		c.emit(OP_METHOD, fi)
	}
	if n.Deinit != nil {
		fi := c.compileMethod(ast.FuncDecl{Name: "deinit", Body: n.Deinit}, n.Name, properties, hasSuper, false)
		c.emit(OP_METHOD, fi)
	}

	if c.scopeDepth == 0 {
		c.emit(OP_DEFINE_GLOBAL, c.addString(n.Name))
	} else {
		c.declareLocal(n.Name)
	}
	return nil
}

// VisitStructDecl mirrors VisitClassDecl with STRUCT/STRUCT_METHOD;
// structs carry no superclass, and `init` is mandatorily mutating
// (spec §4.5.2).
func (c *Compiler) VisitStructDecl(n ast.StructDecl) any {
	c.emit(OP_STRUCT, c.addString(n.Name))

	properties := collectPropertyNames(n.Properties)
	for _, p := range n.Properties {
		c.compileProperty(p, n.Name, properties, false)
	}
	for _, m := range n.Methods {
		mutating := m.IsMutating || m.IsInit
		fi := c.compileMethod(m, n.Name, properties, false, true)
		c.emit(OP_STRUCT_METHOD, fi, boolFlag(mutating))
	}

	if c.scopeDepth == 0 {
		c.emit(OP_DEFINE_GLOBAL, c.addString(n.Name))
	} else {
		c.declareLocal(n.Name)
	}
	return nil
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// VisitEnumDecl implements spec §4.5.2's enum pattern: each case's raw
// value (if any) is emitted before ENUM_CASE; associated-value labels are
// encoded as string indices with NoLabel for unlabeled positions.
func (c *Compiler) VisitEnumDecl(n ast.EnumDecl) any {
	c.emit(OP_ENUM, c.addString(n.Name))

	for _, cs := range n.Cases {
		if cs.RawValue != nil {
			c.compileExpr(cs.RawValue)
		} else {
			c.emit(OP_NIL)
		}
		labels := make([]int, len(cs.AssocParams))
		for i, p := range cs.AssocParams {
			if p.Label == "" || p.Label == "_" {
				labels[i] = NoLabel
			} else {
				labels[i] = c.addString(p.Label)
			}
		}
		operands := append([]int{c.addString(cs.Name), len(cs.AssocParams)}, labels...)
		c.emit(OP_ENUM_CASE, operands...)
	}

	enumProperties := map[string]bool{}
	for _, m := range n.Methods {
		fi := c.compileMethod(m, n.Name, enumProperties, false, false)
		c.emit(OP_METHOD, fi)
	}

	if c.scopeDepth == 0 {
		c.emit(OP_DEFINE_GLOBAL, c.addString(n.Name))
	} else {
		c.declareLocal(n.Name)
	}
	return nil
}

// VisitProtocolDecl emits a PROTOCOL descriptor recording the requirement
// names; protocols carry no bodies to compile.
func (c *Compiler) VisitProtocolDecl(n ast.ProtocolDecl) any {
	desc := ProtocolDescriptor{Name: n.Name, Inherits: n.Inherits}
	for _, m := range n.Methods {
		desc.MethodNames = append(desc.MethodNames, m.Name)
	}
	for _, p := range n.Properties {
		desc.PropertyNames = append(desc.PropertyNames, p.Name)
	}
	root := c.root()
	idx := len(root.protocolDescs)
	root.protocolDescs = append(root.protocolDescs, desc)
	c.emit(OP_PROTOCOL, idx)
	return nil
}

// VisitExtensionDecl compiles an extension's methods/properties exactly
// as if they belonged to the original type declaration, re-opening its
// global slot with GET_GLOBAL before appending.
func (c *Compiler) VisitExtensionDecl(n ast.ExtensionDecl) any {
	c.emit(OP_GET_GLOBAL, c.addString(n.TypeName))
	properties := collectPropertyNames(n.Properties)
	for _, p := range n.Properties {
		c.compileProperty(p, n.TypeName, properties, false)
	}
	for _, m := range n.Methods {
		fi := c.compileMethod(m, n.TypeName, properties, false, false)
		c.emit(OP_METHOD, fi)
	}
	c.emit(OP_SET_GLOBAL, c.addString(n.TypeName))
	c.emit(OP_POP)
	return nil
}

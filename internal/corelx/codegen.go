package corelx

import (
	"fmt"
	"strings"

	"github.com/barryw/novavm/internal/rom"
)

// CodeGenerator walks a parsed program and emits 6502 machine code via
// internal/rom's Assembler, keeping a register-named calling convention,
// label-and-fixup control flow, and a builtin-call-first dispatch before
// falling back to user functions, and
// retargets every emission site to real 6502 opcodes through vm6502.go's
// instruction-emission layer.
type CodeGenerator struct {
	program          *Program
	vm               *asm6502
	symbols          map[string]*Symbol
	labelCounter     int
	assets           map[string]*AssetDecl
	normalizedAssets map[string]AssetIR

	variables  map[string]*VariableInfo
	data       *dataAllocator
	paramCount map[string]int

	strings     map[string]string // label -> literal text, in first-seen order via stringOrder
	stringOrder []string
}

// VariableInfo tracks where a declared name's value lives: either a function
// parameter still resident in its argument register, or a fixed RAM cell a
// VarDeclStmt allocated. StructType is non-empty when the variable holds a
// pointer returned by a Sprite/Vec2 initializer call, so MemberExpr lookups
// know which field-offset table to use.
type VariableInfo struct {
	InRegister bool
	RegIndex   uint8
	Addr       uint16
	StructType string
}

type fieldInfo struct {
	offset uint16
	size   uint16
}

var structFields = map[string]map[string]fieldInfo{
	"Sprite": {
		"x_lo": {0, 1},
		"x_hi": {1, 1},
		"y":    {2, 1},
		"tile": {3, 1},
		"attr": {4, 1},
		"ctrl": {5, 1},
	},
	"Vec2": {
		"x": {0, 2},
		"y": {2, 2},
	},
}

var structSize = map[string]uint16{"Sprite": 6, "Vec2": 4}

// NewCodeGenerator creates a code generator that emits into asm, starting at
// asm's current origin.
func NewCodeGenerator(program *Program, asm *rom.Assembler) *CodeGenerator {
	return &CodeGenerator{
		program:          program,
		vm:               &asm6502{a: asm},
		symbols:          make(map[string]*Symbol),
		assets:           make(map[string]*AssetDecl),
		normalizedAssets: make(map[string]AssetIR),
		variables:        make(map[string]*VariableInfo),
		data:             newDataAllocator(),
		paramCount:       make(map[string]int),
		strings:          make(map[string]string),
	}
}

// SetNormalizedAssets injects compiler-normalized assets so codegen can avoid re-parsing source asset text.
func (cg *CodeGenerator) SetNormalizedAssets(assets []AssetIR) {
	for _, a := range assets {
		cg.normalizedAssets[a.Name] = a
	}
}

func funcLabel(name string) string { return "fn_" + name }

func (cg *CodeGenerator) newLabelName(prefix string) string {
	cg.labelCounter++
	return fmt.Sprintf("%s_%d", prefix, cg.labelCounter)
}

// Generate emits every function's code, an entry jump to __Boot (or Start),
// and trailing asset data. Call Resolve on the Assembler afterward.
func (cg *CodeGenerator) Generate() error {
	for _, asset := range cg.program.Assets {
		cg.assets[asset.Name] = asset
	}
	for _, fn := range cg.program.Functions {
		cg.symbols[fn.Name] = &Symbol{Name: fn.Name, IsFunc: true}
		cg.paramCount[fn.Name] = len(fn.Params)
	}

	var entry *FunctionDecl
	for _, fn := range cg.program.Functions {
		if fn.Name == "__Boot" {
			entry = fn
			break
		}
	}
	if entry == nil {
		for _, fn := range cg.program.Functions {
			if fn.Name == "Start" {
				entry = fn
				break
			}
		}
	}
	if entry == nil {
		return fmt.Errorf("no __Boot or Start entry function found")
	}
	cg.vm.a.AbsLabel(rom.OpJMPAbs, funcLabel(entry.Name))

	functions := make([]*FunctionDecl, 0, len(cg.program.Functions))
	functions = append(functions, entry)
	for _, fn := range cg.program.Functions {
		if fn != entry {
			functions = append(functions, fn)
		}
	}
	for _, fn := range functions {
		if err := cg.generateFunction(fn); err != nil {
			return err
		}
	}

	for _, asset := range cg.normalizedAssets {
		label := "asset_" + asset.Name
		cg.vm.a.Label(label)
		cg.vm.a.Emit(asset.Data...)
	}

	for _, label := range cg.stringOrder {
		cg.vm.a.Label(label)
		cg.vm.a.Emit([]byte(cg.strings[label])...)
		cg.vm.a.Emit(0)
	}

	return nil
}

// internString records a string literal's bytes and returns the data label
// it will be emitted under, reusing the label for an identical literal seen
// earlier in the same program.
func (cg *CodeGenerator) internString(value string) string {
	for _, label := range cg.stringOrder {
		if cg.strings[label] == value {
			return label
		}
	}
	label := fmt.Sprintf("str_%d", len(cg.stringOrder))
	cg.strings[label] = value
	cg.stringOrder = append(cg.stringOrder, label)
	return label
}

func (cg *CodeGenerator) generateFunction(fn *FunctionDecl) error {
	cg.variables = make(map[string]*VariableInfo)
	for i, p := range fn.Params {
		if i >= regCount {
			return fmt.Errorf("function %s: too many parameters (max %d)", fn.Name, regCount)
		}
		cg.variables[p.Name] = &VariableInfo{InRegister: true, RegIndex: uint8(i)}
	}

	cg.vm.a.Label(funcLabel(fn.Name))
	for _, stmt := range fn.Body {
		if err := cg.generateStmt(stmt); err != nil {
			return fmt.Errorf("function %s: %w", fn.Name, err)
		}
	}
	cg.vm.a.Emit(rom.OpRTS)
	return nil
}

func (cg *CodeGenerator) generateStmt(stmt Stmt) error {
	switch s := stmt.(type) {
	case *VarDeclStmt:
		return cg.generateVarDecl(s)
	case *AssignStmt:
		return cg.generateAssign(s)
	case *IfStmt:
		return cg.generateIf(s)
	case *WhileStmt:
		return cg.generateWhile(s)
	case *ForStmt:
		return cg.generateFor(s)
	case *ReturnStmt:
		return cg.generateReturn(s)
	case *ExprStmt:
		return cg.generateExpr(s.Expr, 0)
	default:
		return fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

func (cg *CodeGenerator) generateVarDecl(stmt *VarDeclStmt) error {
	if call, ok := stmt.Value.(*CallExpr); ok {
		if ident, ok := call.Func.(*IdentExpr); ok {
			if _, known := structFields[ident.Name]; known {
				if err := cg.generateCall(call, 0); err != nil {
					return err
				}
				addr := cg.data.alloc(2)
				cg.vm.storeAbs(addr, 0)
				cg.variables[stmt.Name] = &VariableInfo{Addr: addr, StructType: ident.Name}
				return nil
			}
		}
	}

	if err := cg.generateExpr(stmt.Value, 0); err != nil {
		return err
	}
	addr := cg.data.alloc(2)
	cg.vm.storeAbs(addr, 0)
	cg.variables[stmt.Name] = &VariableInfo{Addr: addr}
	return nil
}

func (cg *CodeGenerator) generateAssign(stmt *AssignStmt) error {
	if member, ok := stmt.Target.(*MemberExpr); ok {
		if err := cg.generateExpr(stmt.Value, 1); err != nil {
			return err
		}
		return cg.storeMember(member, 1)
	}

	ident, ok := stmt.Target.(*IdentExpr)
	if !ok {
		return fmt.Errorf("unsupported assignment target: %T", stmt.Target)
	}
	vi, ok := cg.variables[ident.Name]
	if !ok {
		return fmt.Errorf("assignment to undeclared variable %q", ident.Name)
	}
	if vi.InRegister {
		if err := cg.generateExpr(stmt.Value, vi.RegIndex); err != nil {
			return err
		}
		return nil
	}
	if err := cg.generateExpr(stmt.Value, 0); err != nil {
		return err
	}
	cg.vm.storeAbs(vi.Addr, 0)
	return nil
}

func (cg *CodeGenerator) loadVariable(name string, destReg uint8) error {
	vi, ok := cg.variables[name]
	if !ok {
		return fmt.Errorf("reference to undeclared variable %q", name)
	}
	if vi.InRegister {
		cg.vm.movReg(destReg, vi.RegIndex)
		return nil
	}
	cg.vm.loadAbs(destReg, vi.Addr)
	return nil
}

// loadMemberPointer copies a struct-holding variable's stored address into
// the ptrLo/ptrHi scratch cell so (ptrLo),Y indirect addressing can reach
// the struct's fields.
func (cg *CodeGenerator) loadMemberPointer(object Expr) (string, error) {
	ident, ok := object.(*IdentExpr)
	if !ok {
		return "", fmt.Errorf("member access on non-identifier expression: %T", object)
	}
	vi, ok := cg.variables[ident.Name]
	if !ok {
		return "", fmt.Errorf("reference to undeclared variable %q", ident.Name)
	}
	if vi.StructType == "" {
		return "", fmt.Errorf("variable %q does not hold a struct pointer", ident.Name)
	}
	a := cg.vm.a
	a.Abs(rom.OpLDAAbs, vi.Addr)
	a.ZeroPage(rom.OpSTAZp, ptrLo)
	a.Abs(rom.OpLDAAbs, vi.Addr+1)
	a.ZeroPage(rom.OpSTAZp, ptrHi)
	return vi.StructType, nil
}

func (cg *CodeGenerator) generateMember(expr *MemberExpr, destReg uint8) error {
	structType, err := cg.loadMemberPointer(expr.Object)
	if err != nil {
		return err
	}
	field, ok := structFields[structType][expr.Member]
	if !ok {
		return fmt.Errorf("unknown field %q on %s", expr.Member, structType)
	}
	a := cg.vm.a
	a.Imm8(rom.OpLDYImm, byte(field.offset))
	a.Emit(rom.OpLDAIndY, ptrLo)
	a.ZeroPage(rom.OpSTAZp, regLo(destReg))
	if field.size == 1 {
		a.Imm8(rom.OpLDAImm, 0)
		a.ZeroPage(rom.OpSTAZp, regHi(destReg))
		return nil
	}
	a.Emit(rom.OpINY)
	a.Emit(rom.OpLDAIndY, ptrLo)
	a.ZeroPage(rom.OpSTAZp, regHi(destReg))
	return nil
}

func (cg *CodeGenerator) storeMember(expr *MemberExpr, srcReg uint8) error {
	structType, err := cg.loadMemberPointer(expr.Object)
	if err != nil {
		return err
	}
	field, ok := structFields[structType][expr.Member]
	if !ok {
		return fmt.Errorf("unknown field %q on %s", expr.Member, structType)
	}
	a := cg.vm.a
	a.Imm8(rom.OpLDYImm, byte(field.offset))
	a.ZeroPage(rom.OpLDAZp, regLo(srcReg))
	a.Emit(rom.OpSTAIndY, ptrLo)
	if field.size == 1 {
		return nil
	}
	a.Emit(rom.OpINY)
	a.ZeroPage(rom.OpLDAZp, regHi(srcReg))
	a.Emit(rom.OpSTAIndY, ptrLo)
	return nil
}

func (cg *CodeGenerator) generateIf(stmt *IfStmt) error {
	endLabel := cg.newLabelName("if_end")

	if err := cg.generateExpr(stmt.Condition, 0); err != nil {
		return err
	}
	nextLabel := cg.newLabelName("if_next")
	cg.vm.branchIfZero(0, nextLabel)
	for _, s := range stmt.Then {
		if err := cg.generateStmt(s); err != nil {
			return err
		}
	}
	cg.vm.a.AbsLabel(rom.OpJMPAbs, endLabel)
	cg.vm.a.Label(nextLabel)

	for _, clause := range stmt.ElseIf {
		if err := cg.generateExpr(clause.Condition, 0); err != nil {
			return err
		}
		afterClause := cg.newLabelName("elseif_next")
		cg.vm.branchIfZero(0, afterClause)
		for _, s := range clause.Body {
			if err := cg.generateStmt(s); err != nil {
				return err
			}
		}
		cg.vm.a.AbsLabel(rom.OpJMPAbs, endLabel)
		cg.vm.a.Label(afterClause)
	}

	for _, s := range stmt.Else {
		if err := cg.generateStmt(s); err != nil {
			return err
		}
	}
	cg.vm.a.Label(endLabel)
	return nil
}

func (cg *CodeGenerator) generateWhile(stmt *WhileStmt) error {
	top := cg.newLabelName("while_top")
	end := cg.newLabelName("while_end")

	cg.vm.a.Label(top)
	if err := cg.generateExpr(stmt.Condition, 0); err != nil {
		return err
	}
	cg.vm.branchIfZero(0, end)
	for _, s := range stmt.Body {
		if err := cg.generateStmt(s); err != nil {
			return err
		}
	}
	cg.vm.a.AbsLabel(rom.OpJMPAbs, top)
	cg.vm.a.Label(end)
	return nil
}

func (cg *CodeGenerator) generateFor(stmt *ForStmt) error {
	if stmt.Init != nil {
		if err := cg.generateStmt(stmt.Init); err != nil {
			return err
		}
	}
	top := cg.newLabelName("for_top")
	end := cg.newLabelName("for_end")

	cg.vm.a.Label(top)
	if stmt.Condition != nil {
		if err := cg.generateExpr(stmt.Condition, 0); err != nil {
			return err
		}
		cg.vm.branchIfZero(0, end)
	}
	for _, s := range stmt.Body {
		if err := cg.generateStmt(s); err != nil {
			return err
		}
	}
	if stmt.Post != nil {
		if err := cg.generateStmt(stmt.Post); err != nil {
			return err
		}
	}
	cg.vm.a.AbsLabel(rom.OpJMPAbs, top)
	cg.vm.a.Label(end)
	return nil
}

func (cg *CodeGenerator) generateReturn(stmt *ReturnStmt) error {
	if stmt.Value != nil {
		if err := cg.generateExpr(stmt.Value, 0); err != nil {
			return err
		}
	}
	cg.vm.a.Emit(rom.OpRTS)
	return nil
}

func (cg *CodeGenerator) generateExpr(expr Expr, destReg uint8) error {
	switch e := expr.(type) {
	case *NumberExpr:
		cg.vm.movImm(destReg, uint16(e.Value))
		return nil

	case *BoolExpr:
		if e.Value {
			cg.vm.movImm(destReg, 1)
		} else {
			cg.vm.movImm(destReg, 0)
		}
		return nil

	case *StringExpr:
		label := cg.internString(e.Value)
		cg.vm.movLabelAddr(destReg, label)
		return nil

	case *IdentExpr:
		if strings.HasPrefix(e.Name, "ASSET_") {
			assetName := strings.TrimPrefix(e.Name, "ASSET_")
			if _, ok := cg.normalizedAssets[assetName]; !ok {
				return fmt.Errorf("reference to unknown asset %q", assetName)
			}
			cg.vm.movLabelAddr(destReg, "asset_"+assetName)
			return nil
		}
		return cg.loadVariable(e.Name, destReg)

	case *BinaryExpr:
		return cg.generateBinary(e, destReg)

	case *UnaryExpr:
		return cg.generateUnary(e, destReg)

	case *CallExpr:
		return cg.generateCall(e, destReg)

	case *MemberExpr:
		return cg.generateMember(e, destReg)

	default:
		return fmt.Errorf("unsupported expression type: %T", expr)
	}
}

// generateBinary evaluates the left operand into destReg and saves it on the
// hardware stack while the right operand is evaluated into a fixed scratch
// register, then pulls the left value into the other scratch register and
// applies the operator. The scratch registers double as parameter registers
// R1 and R2: once a binary expression has been evaluated, a parameter passed
// in R1 or R2 holds an intermediate value instead, so a function that reads
// such a parameter after a binary expression should copy it into a local
// variable first.
const (
	scratchLeft  = 1
	scratchRight = 2
)

func (cg *CodeGenerator) generateBinary(expr *BinaryExpr, destReg uint8) error {
	if err := cg.generateExpr(expr.Left, destReg); err != nil {
		return err
	}
	a := cg.vm.a
	a.ZeroPage(rom.OpLDAZp, regLo(destReg))
	a.Emit(rom.OpPHA)
	a.ZeroPage(rom.OpLDAZp, regHi(destReg))
	a.Emit(rom.OpPHA)
	if err := cg.generateExpr(expr.Right, scratchRight); err != nil {
		return err
	}
	a.Emit(rom.OpPLA)
	a.ZeroPage(rom.OpSTAZp, regHi(scratchLeft))
	a.Emit(rom.OpPLA)
	a.ZeroPage(rom.OpSTAZp, regLo(scratchLeft))

	switch expr.Op {
	case TOKEN_PLUS:
		cg.vm.add(scratchLeft, scratchRight)
		cg.vm.movReg(destReg, scratchLeft)
	case TOKEN_MINUS:
		cg.vm.sub(scratchLeft, scratchRight)
		cg.vm.movReg(destReg, scratchLeft)
	case TOKEN_STAR:
		if err := cg.mulInt(scratchLeft, scratchRight); err != nil {
			return err
		}
		cg.vm.movReg(destReg, scratchLeft)
	case TOKEN_SLASH:
		if err := cg.divInt(scratchLeft, scratchRight); err != nil {
			return err
		}
		cg.vm.movReg(destReg, scratchLeft)
	case TOKEN_PERCENT:
		if err := cg.modInt(scratchLeft, scratchRight); err != nil {
			return err
		}
		cg.vm.movReg(destReg, scratchLeft)
	case TOKEN_AMPERSAND:
		cg.vm.bitwise(rom.OpANDZp, scratchLeft, scratchRight)
		cg.vm.movReg(destReg, scratchLeft)
	case TOKEN_PIPE:
		cg.vm.bitwise(rom.OpORAZp, scratchLeft, scratchRight)
		cg.vm.movReg(destReg, scratchLeft)
	case TOKEN_CARET:
		cg.vm.bitwise(rom.OpEORZp, scratchLeft, scratchRight)
		cg.vm.movReg(destReg, scratchLeft)
	case TOKEN_LSHIFT:
		cg.shiftLeft(scratchLeft, scratchRight)
		cg.vm.movReg(destReg, scratchLeft)
	case TOKEN_RSHIFT:
		cg.shiftRight(scratchLeft, scratchRight)
		cg.vm.movReg(destReg, scratchLeft)
	case TOKEN_EQUAL_EQUAL, TOKEN_BANG_EQUAL, TOKEN_LESS, TOKEN_LESS_EQUAL, TOKEN_GREATER, TOKEN_GREATER_EQUAL:
		cg.compare(scratchLeft, scratchRight)
		return cg.boolFromCompare(expr.Op, destReg)
	case TOKEN_AND:
		falseLbl := cg.newLabelName("and_false")
		done := cg.newLabelName("and_done")
		cg.vm.branchIfZero(scratchLeft, falseLbl)
		cg.vm.branchIfZero(scratchRight, falseLbl)
		cg.vm.movImm(destReg, 1)
		cg.vm.a.AbsLabel(rom.OpJMPAbs, done)
		cg.vm.a.Label(falseLbl)
		cg.vm.movImm(destReg, 0)
		cg.vm.a.Label(done)
	case TOKEN_OR:
		trueLbl := cg.newLabelName("or_true")
		done := cg.newLabelName("or_done")
		cg.vm.branchIfNonZero(scratchLeft, trueLbl)
		cg.vm.branchIfNonZero(scratchRight, trueLbl)
		cg.vm.movImm(destReg, 0)
		cg.vm.a.AbsLabel(rom.OpJMPAbs, done)
		cg.vm.a.Label(trueLbl)
		cg.vm.movImm(destReg, 1)
		cg.vm.a.Label(done)
	default:
		return fmt.Errorf("unsupported binary operator: %v", expr.Op)
	}
	return nil
}

func (cg *CodeGenerator) generateUnary(expr *UnaryExpr, destReg uint8) error {
	if err := cg.generateExpr(expr.Operand, destReg); err != nil {
		return err
	}
	a := cg.vm.a
	switch expr.Op {
	case TOKEN_MINUS:
		a.Emit(rom.OpSEC)
		a.Imm8(rom.OpLDAImm, 0)
		a.ZeroPage(rom.OpSBCZp, regLo(destReg))
		a.ZeroPage(rom.OpSTAZp, ptrLo)
		a.Imm8(rom.OpLDAImm, 0)
		a.ZeroPage(rom.OpSBCZp, regHi(destReg))
		a.ZeroPage(rom.OpSTAZp, regHi(destReg))
		a.ZeroPage(rom.OpLDAZp, ptrLo)
		a.ZeroPage(rom.OpSTAZp, regLo(destReg))
	case TOKEN_TILDE:
		a.ZeroPage(rom.OpLDAZp, regLo(destReg))
		a.Imm8(rom.OpEORImm, 0xFF)
		a.ZeroPage(rom.OpSTAZp, regLo(destReg))
		a.ZeroPage(rom.OpLDAZp, regHi(destReg))
		a.Imm8(rom.OpEORImm, 0xFF)
		a.ZeroPage(rom.OpSTAZp, regHi(destReg))
	case TOKEN_NOT:
		falseLbl := cg.newLabelName("not_false")
		done := cg.newLabelName("not_done")
		cg.vm.branchIfNonZero(destReg, falseLbl)
		cg.vm.movImm(destReg, 1)
		a.AbsLabel(rom.OpJMPAbs, done)
		a.Label(falseLbl)
		cg.vm.movImm(destReg, 0)
		a.Label(done)
	default:
		return fmt.Errorf("unsupported unary operator: %v", expr.Op)
	}
	return nil
}

func (cg *CodeGenerator) generateCall(call *CallExpr, destReg uint8) error {
	name, err := callName(call.Func)
	if err != nil {
		return err
	}

	if _, known := structFields[name]; known {
		return cg.generateStructInit(name, destReg)
	}

	if len(call.Args) > regCount {
		return fmt.Errorf("call to %s: too many arguments (max %d)", name, regCount)
	}
	for i, arg := range call.Args {
		if err := cg.generateExpr(arg, uint8(i)); err != nil {
			return err
		}
	}

	handled, err := cg.generateBuiltinCall(name, call.Args, destReg)
	if err != nil {
		return err
	}
	if handled {
		return nil
	}

	if _, ok := cg.symbols[name]; !ok {
		return fmt.Errorf("call to unknown function %q", name)
	}
	cg.vm.a.AbsLabel(rom.OpJSRAbs, funcLabel(name))
	if destReg != 0 {
		cg.vm.movReg(destReg, 0)
	}
	return nil
}

func callName(fn Expr) (string, error) {
	switch f := fn.(type) {
	case *IdentExpr:
		return f.Name, nil
	case *MemberExpr:
		obj, ok := f.Object.(*IdentExpr)
		if !ok {
			return "", fmt.Errorf("unsupported call target: %T", f.Object)
		}
		return obj.Name + "." + f.Member, nil
	default:
		return "", fmt.Errorf("unsupported call expression: %T", fn)
	}
}

// generateStructInit allocates a zeroed block sized for structType and
// returns its address in destReg. Earlier drafts of this allocator only
// zeroed the first byte and relied on the rest of RAM happening to be zero
// at boot, which does not hold for a block reused by a second instantiation
// later in the same run; every byte is zeroed explicitly here via the
// runtime's memset helper.
func (cg *CodeGenerator) generateStructInit(structType string, destReg uint8) error {
	size := structSize[structType]
	addr := cg.data.alloc(size)

	memsetAddr, err := rom.HelperAddress("memset")
	if err != nil {
		return err
	}
	a := cg.vm.a
	a.Imm8(rom.OpLDAImm, byte(addr))
	a.ZeroPage(rom.OpSTAZp, rom.ZPArg0)
	a.Imm8(rom.OpLDAImm, byte(addr>>8))
	a.ZeroPage(rom.OpSTAZp, rom.ZPArg0Hi)
	a.Imm8(rom.OpLDAImm, byte(size))
	a.ZeroPage(rom.OpSTAZp, rom.ZPLenLo)
	a.Imm8(rom.OpLDAImm, byte(size>>8))
	a.ZeroPage(rom.OpSTAZp, rom.ZPLenHi)
	a.Imm8(rom.OpLDAImm, 0)
	a.Abs(rom.OpJSRAbs, memsetAddr)

	cg.vm.movImm(destReg, addr)
	return nil
}

package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"swiftscript/lexer"
	"swiftscript/parser"
)

func analyze(t *testing.T, source string) error {
	t.Helper()
	toks, err := lexer.New(source).Scan()
	require.NoError(t, err)
	stmts, errs := parser.Make(toks).Parse()
	require.Empty(t, errs)
	return New().Analyze(stmts)
}

func TestValidProgramPassesAnalysis(t *testing.T) {
	err := analyze(t, `
var x: Int = 1
var y: Int = x + 2
print(y)
`)
	require.NoError(t, err)
}

func TestArithmeticOnMismatchedTypesIsRejected(t *testing.T) {
	err := analyze(t, `
class Dog { let name: String }
var d: Dog = Dog()
var bad: Int = d + 1
`)
	require.Error(t, err)
}

func TestAssigningToLetConstantIsRejected(t *testing.T) {
	err := analyze(t, `
let x: Int = 1
x = 2
`)
	require.Error(t, err)
}

func TestBreakOutsideLoopIsRejected(t *testing.T) {
	err := analyze(t, `break`)
	require.Error(t, err)
}

func TestBreakInsideLoopIsAccepted(t *testing.T) {
	err := analyze(t, `
while true {
	break
}
`)
	require.NoError(t, err)
}

func TestGuardElseMustExit(t *testing.T) {
	err := analyze(t, `
func f(maybe: Int?) -> Int {
	guard let value = maybe else {
		print("missing")
	}
	return value
}
`)
	require.Error(t, err)
}

func TestGuardElseWithReturnIsAccepted(t *testing.T) {
	err := analyze(t, `
func f(maybe: Int?) -> Int {
	guard let value = maybe else {
		return 0
	}
	return value
}
`)
	require.NoError(t, err)
}

func TestPrivateMemberInaccessibleOutsideType(t *testing.T) {
	err := analyze(t, `
class Box {
	private var secret: Int = 1
}
var b: Box = Box()
print(b.secret)
`)
	require.Error(t, err)
}

func TestObsoleteAttributeIsRejected(t *testing.T) {
	err := analyze(t, `
[Obsolete]
func oldWay() {
	print("hi")
}
`)
	require.Error(t, err)
}

func TestMutatingMethodOnLetInstanceIsRejected(t *testing.T) {
	err := analyze(t, `
class Counter {
	var count: Int = 0
	mutating func increment() {
		count = count + 1
	}
}
let c: Counter = Counter()
c.increment()
`)
	require.Error(t, err)
}

func TestNonMutatingStructMethodCannotWriteToSelf(t *testing.T) {
	err := analyze(t, `
struct Counter {
	var count: Int = 0
	func reset() {
		self.count = 0
	}
}
`)
	require.Error(t, err)
}

func TestNonMutatingStructMethodCannotCallMutatingMethodOnSelf(t *testing.T) {
	err := analyze(t, `
struct Counter {
	var count: Int = 0
	mutating func increment() {
		count = count + 1
	}
	func bump() {
		self.increment()
	}
}
`)
	require.Error(t, err)
}

func TestMutatingStructMethodCanWriteToSelf(t *testing.T) {
	err := analyze(t, `
struct Counter {
	var count: Int = 0
	mutating func reset() {
		self.count = 0
	}
}
`)
	require.NoError(t, err)
}

func TestOperatorOverloadResolvesReturnType(t *testing.T) {
	err := analyze(t, `
struct Vector {
	var x: Int
	func +(rhs: Vector) -> Vector {
		return self
	}
}
var a: Vector = Vector(x: 1)
var b: Vector = Vector(x: 2)
var c: Vector = a + b
`)
	require.NoError(t, err)
}

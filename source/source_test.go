package source

import (
	"errors"
	"testing"
)

const validGame = `
let score = 0;
const player = { x: 40, y: 40 };

function update(dt) {
  player.x += dt * 10;
  if (player.x > 320) {
    score += 1;
    player.x = 0;
  }
}

function draw(ctx) {
  ctx.clearRect(0, 0, 320, 240);
  ctx.fillRect(player.x, player.y, 16, 16);
  ctx.fillText("score: " + score, 8, 12);
}
`

func TestValidate_OK(t *testing.T) {
	if err := Validate(validGame); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_EntryPointVariants(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"function declarations", "function update(dt) {}\nfunction draw(ctx) {}"},
		{"const arrow", "const update = (dt) => {};\nconst draw = (ctx) => {};"},
		{"let function expression", "let update = function (dt) {};\nlet draw = function (ctx) {};"},
		{"async update", "const update = async (dt) => {};\nfunction draw(ctx) {}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.src); err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"empty", "", ErrEmptySource},
		{"whitespace only", " \n\t ", ErrEmptySource},
		{"unbalanced brace", "function update(dt) {\nfunction draw(ctx) {}", ErrUnbalanced},
		{"stray closer", "function update(dt) {}}\nfunction draw(ctx) {}", ErrUnbalanced},
		{"mismatched pair", "function update(dt) {]\nfunction draw(ctx) {}", ErrUnbalanced},
		{"unterminated comment", "function update(dt) {} /* trailing\nfunction draw(ctx) {}", ErrUnbalanced},
		{"unterminated template", "function update(dt) {}\nfunction draw(ctx) { let s = `oops }", ErrUnbalanced},
		{"missing draw", "function update(dt) {}", ErrMissingEntryPoint},
		{"missing update", "function draw(ctx) {}", ErrMissingEntryPoint},
		{"entry point only inside string", `function update(dt) {}; const s = "function draw(";`, ErrMissingEntryPoint},
		{"entry point only inside comment", "function update(dt) {}\n// function draw(ctx) {}", ErrMissingEntryPoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.src); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidate_BracketsInsideLiteralsIgnored(t *testing.T) {
	src := `
function update(dt) {
  const s = "((((";
  const u = '}}';
  const tpl = ` + "`)]}`" + `;
  // ((((
  /* }}}} */
}
function draw(ctx) {}
`
	if err := Validate(src); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_EscapedQuotes(t *testing.T) {
	src := `
function update(dt) {
  const s = "a \" ( quote";
  const u = 'it\'s {';
}
function draw(ctx) {}
`
	if err := Validate(src); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

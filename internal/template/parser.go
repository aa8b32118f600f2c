package template

import "strings"

// Parser builds a template AST from lexer tokens.
type Parser struct {
	tokens []Token
	pos    int
	file   string
}

// ParseString tokenizes and parses a template.
func ParseString(input, file string) (*Template, error) {
	lexer := NewLexer(input, file)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, file).Parse()
}

// NewParser creates a parser over a token stream.
func NewParser(tokens []Token, file string) *Parser {
	return &Parser{tokens: tokens, file: file}
}

// Parse consumes the token stream and returns the template AST.
func (p *Parser) Parse() (*Template, error) {
	nodes, err := p.parseNodes(StmtUnknown)
	if err != nil {
		return nil, err
	}

	// parseNodes stops at any closing statement; at top level there is
	// nothing to close, so a leftover token is an unmatched end.
	if tok := p.current(); tok.Type == TokenStmt {
		stmt, perr := parseStatement(tok)
		if perr != nil {
			return nil, perr
		}
		return nil, NewUnmatchedBlockError(tok.Pos, stmt.Kind)
	}

	return &Template{Nodes: nodes, File: p.file}, nil
}

// parseNodes parses nodes until EOF or a closing statement belonging to the
// enclosing block (endfor for StmtFor openers, endif/elif/else for StmtIf).
// The closing token is left for the caller to consume.
func (p *Parser) parseNodes(opener StmtKind) ([]Node, error) {
	var nodes []Node

	for {
		tok := p.current()
		switch tok.Type {
		case TokenEOF:
			return nodes, nil

		case TokenText:
			p.pos++
			nodes = append(nodes, &TextNode{nodeBase: nodeBase{pos: tok.Pos}, Text: tok.Value})

		case TokenExpr:
			p.pos++
			nodes = append(nodes, &ExprNode{nodeBase: nodeBase{pos: tok.Pos}, Expr: tok.Value})

		case TokenStmt:
			stmt, err := parseStatement(tok)
			if err != nil {
				return nil, err
			}

			switch stmt.Kind {
			case StmtFor:
				p.pos++
				block, err := p.parseForBlock(stmt)
				if err != nil {
					return nil, err
				}
				nodes = append(nodes, block)

			case StmtIf:
				p.pos++
				block, err := p.parseIfBlock(stmt)
				if err != nil {
					return nil, err
				}
				nodes = append(nodes, block)

			case StmtSet:
				p.pos++
				nodes = append(nodes, &SetNode{
					nodeBase: nodeBase{pos: tok.Pos},
					Name:     stmt.VarNames[0],
					Expr:     stmt.Expr,
				})

			case StmtEndFor:
				if opener == StmtFor {
					return nodes, nil
				}
				return nil, NewUnmatchedBlockError(tok.Pos, StmtEndFor)

			case StmtEndIf, StmtElif, StmtElse:
				if opener == StmtIf {
					return nodes, nil
				}
				return nil, NewUnmatchedBlockError(tok.Pos, stmt.Kind)

			default:
				return nil, NewParseErrorf(tok.Pos, "unsupported statement: %q", tok.Value)
			}

		default:
			return nil, NewParseErrorf(tok.Pos, "unexpected token: %s", tok.Type)
		}
	}
}

// parseForBlock parses the body of a for loop. The opening statement has
// already been consumed.
func (p *Parser) parseForBlock(open *StmtNode) (*ForBlock, error) {
	body, err := p.parseNodes(StmtFor)
	if err != nil {
		return nil, err
	}

	tok := p.current()
	if tok.Type != TokenStmt {
		return nil, NewUnmatchedBlockError(open.Pos(), StmtFor)
	}
	end, err := parseStatement(tok)
	if err != nil {
		return nil, err
	}
	if end.Kind != StmtEndFor {
		return nil, NewUnmatchedBlockError(open.Pos(), StmtFor)
	}
	p.pos++ // consume endfor

	return &ForBlock{
		nodeBase: nodeBase{pos: open.Pos()},
		VarNames: open.VarNames,
		IterExpr: open.Expr,
		Body:     body,
	}, nil
}

// parseIfBlock parses the branches of a conditional. The opening statement
// has already been consumed.
func (p *Parser) parseIfBlock(open *StmtNode) (*IfBlock, error) {
	block := &IfBlock{
		nodeBase:  nodeBase{pos: open.Pos()},
		Condition: open.Expr,
	}

	body, err := p.parseNodes(StmtIf)
	if err != nil {
		return nil, err
	}
	block.Body = body

	for {
		tok := p.current()
		if tok.Type != TokenStmt {
			return nil, NewUnmatchedBlockError(open.Pos(), StmtIf)
		}
		stmt, err := parseStatement(tok)
		if err != nil {
			return nil, err
		}

		switch stmt.Kind {
		case StmtElif:
			p.pos++
			branchBody, err := p.parseNodes(StmtIf)
			if err != nil {
				return nil, err
			}
			block.ElseIfs = append(block.ElseIfs, Branch{
				Condition: stmt.Expr,
				Body:      branchBody,
				pos:       tok.Pos,
			})

		case StmtElse:
			p.pos++
			elseBody, err := p.parseNodes(StmtIf)
			if err != nil {
				return nil, err
			}
			block.Else = elseBody

			tok = p.current()
			if tok.Type != TokenStmt {
				return nil, NewUnmatchedBlockError(open.Pos(), StmtIf)
			}
			end, err := parseStatement(tok)
			if err != nil {
				return nil, err
			}
			if end.Kind != StmtEndIf {
				return nil, NewUnmatchedBlockError(open.Pos(), StmtIf)
			}
			p.pos++ // consume endif
			return block, nil

		case StmtEndIf:
			p.pos++ // consume endif
			return block, nil

		default:
			return nil, NewUnmatchedBlockError(open.Pos(), StmtIf)
		}
	}
}

// current returns the token at the cursor without consuming it.
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// parseStatement classifies a raw statement token into a StmtNode.
// A trailing colon is accepted on block statements so templates may be
// written either Python-style or bare.
func parseStatement(tok Token) (*StmtNode, error) {
	value := strings.TrimSpace(tok.Value)
	node := &StmtNode{nodeBase: nodeBase{pos: tok.Pos}}

	keyword, rest, _ := strings.Cut(value, " ")
	keyword = strings.TrimSuffix(keyword, ":")
	if keyword != "set" {
		// Block statements accept an optional Python-style trailing colon.
		rest = strings.TrimSuffix(rest, ":")
	}
	rest = strings.TrimSpace(rest)

	switch keyword {
	case "for":
		varsPart, iterExpr, found := cutKeyword(rest, " in ")
		if !found || varsPart == "" || iterExpr == "" {
			return nil, NewParseErrorf(tok.Pos, "malformed for statement: %q", tok.Value)
		}
		for _, name := range strings.Split(varsPart, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				return nil, NewParseErrorf(tok.Pos, "malformed for statement: %q", tok.Value)
			}
			node.VarNames = append(node.VarNames, name)
		}
		node.Kind = StmtFor
		node.Expr = iterExpr

	case "endfor":
		if rest != "" {
			return nil, NewParseErrorf(tok.Pos, "malformed endfor statement: %q", tok.Value)
		}
		node.Kind = StmtEndFor

	case "if":
		if rest == "" {
			return nil, NewParseErrorf(tok.Pos, "malformed if statement: %q", tok.Value)
		}
		node.Kind = StmtIf
		node.Expr = rest

	case "elif":
		if rest == "" {
			return nil, NewParseErrorf(tok.Pos, "malformed elif statement: %q", tok.Value)
		}
		node.Kind = StmtElif
		node.Expr = rest

	case "else":
		if rest != "" {
			return nil, NewParseErrorf(tok.Pos, "malformed else statement: %q", tok.Value)
		}
		node.Kind = StmtElse

	case "endif":
		if rest != "" {
			return nil, NewParseErrorf(tok.Pos, "malformed endif statement: %q", tok.Value)
		}
		node.Kind = StmtEndIf

	case "set":
		name, expr, found := strings.Cut(rest, "=")
		name = strings.TrimSpace(name)
		expr = strings.TrimSpace(expr)
		if !found || name == "" || expr == "" || strings.ContainsAny(name, " \t") {
			return nil, NewParseErrorf(tok.Pos, "malformed set statement: %q", tok.Value)
		}
		node.Kind = StmtSet
		node.VarNames = []string{name}
		node.Expr = expr

	default:
		return nil, NewParseErrorf(tok.Pos, "unsupported statement: %q", tok.Value)
	}

	return node, nil
}

// cutKeyword splits s around the first occurrence of sep that is not inside
// quotes or brackets, so iterator expressions like ["a in b"] stay intact.
func cutKeyword(s, sep string) (before, after string, found bool) {
	depth := 0
	var quote rune
	for i := 0; i+len(sep) <= len(s); i++ {
		c := rune(s[i])
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[' || c == '(' || c == '{':
			depth++
		case c == ']' || c == ')' || c == '}':
			depth--
		}
		if quote == 0 && depth == 0 && strings.HasPrefix(s[i:], sep) {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(sep):]), true
		}
	}
	return s, "", false
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/nibzard/tasklist-go/internal/config"
)

var completionCommands = []string{
	"ls", "add", "toggle", "rm", "clear-done", "tui", "serve",
	"export", "doctor", "tail", "completion", "version", "help",
}

// completionCommand prints a completion script for the named shell.
func completionCommand(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tasklist completion <bash|zsh|fish|powershell>")
	}
	commands := strings.Join(completionCommands, " ")

	switch strings.ToLower(args[0]) {
	case "bash":
		fmt.Printf(bashCompletion, commands)
	case "zsh":
		fmt.Printf(zshCompletion, commands)
	case "fish":
		fmt.Printf(fishCompletion, commands)
	case "powershell", "pwsh":
		fmt.Printf(powershellCompletion, "'"+strings.Join(completionCommands, "','")+"'")
	default:
		return fmt.Errorf("unsupported shell %q (expected bash|zsh|fish|powershell)", args[0])
	}
	return nil
}

const bashCompletion = `# tasklist bash completion
_tasklist() {
    local cur prev
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    case "$prev" in
        -format)
            COMPREPLY=( $(compgen -W "json csv text pdf" -- "$cur") )
            return ;;
        -storage)
            COMPREPLY=( $(compgen -W "file memory mysql neo4j" -- "$cur") )
            return ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish powershell" -- "$cur") )
            return ;;
    esac

    if [[ $COMP_CWORD -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "%s" -- "$cur") )
    fi
}
complete -F _tasklist tasklist
`

const zshCompletion = `#compdef tasklist
# tasklist zsh completion

_tasklist() {
    local -a commands
    commands=(%s)

    if (( CURRENT == 2 )); then
        _describe 'command' commands
        return
    fi

    case "${words[2]}" in
        export)
            _arguments '-format[export format]:format:(json csv text pdf)' '-o[output file]:file:_files' ;;
        ls)
            _arguments '-all[all tasks]' '-open[open tasks]' '-done[completed tasks]' ;;
        completion)
            _values 'shell' bash zsh fish powershell ;;
    esac
}

_tasklist "$@"
`

const fishCompletion = `# tasklist fish completion
set -l tasklist_commands %s

complete -c tasklist -f
complete -c tasklist -n "not __fish_seen_subcommand_from $tasklist_commands" -a "$tasklist_commands"
complete -c tasklist -n "__fish_seen_subcommand_from ls" -o all -o open -o done
complete -c tasklist -n "__fish_seen_subcommand_from export" -o format -xa "json csv text pdf"
complete -c tasklist -n "__fish_seen_subcommand_from export" -o o -r
complete -c tasklist -n "__fish_seen_subcommand_from completion" -a "bash zsh fish powershell"
`

const powershellCompletion = `# tasklist PowerShell completion
Register-ArgumentCompleter -Native -CommandName tasklist -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)
    $commands = @(%s)
    $commands | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
    }
}
`

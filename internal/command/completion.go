// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/dpcviz/internal/meta"
)

const bashCompletionScript = `# bash completion for dpcviz
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_dpcviz()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "dataset table chart overview completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local ds="--repo --path -p --resample --timezone --where --tldr"
    local render="--fig-dir --csv-dir --save-fig --width --height"
    local s3="--s3-bucket --s3-prefix --s3-endpoint --aws-profile --aws-region"

    case "$cmd" in
        dataset)
            local opts="$ds"
            ;;
        table)
            local opts="$ds --column --color -c --filter -f --output -o --sort -s --tail --titles -t"
            ;;
        chart)
            local opts="$ds $render $s3 --column --name --title --views --save-csv --format --zero-min --window --lookback --gf-window --raw --sma --ema --smd --ylim"
            ;;
        overview)
            local opts="--repo --resample --timezone --tldr $render $s3"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json yaml csv" -- "$cur") )
            return 0
            ;;
        --format)
            COMPREPLY=( $(compgen -W "png svg" -- "$cur") )
            return 0
            ;;
        --fig-dir|--csv-dir)
            COMPREPLY=( $(compgen -o dirnames -- "$cur") )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _dpcviz dpcviz
`

const zshCompletionScript = `#compdef dpcviz

_dpcviz() {
  local -a cmds
  cmds=(
    'dataset:describe a remote CSV file'
    'table:print dataset columns'
    'chart:render level, delta and growth factor charts'
    'overview:render the 3x3 dashboard of an area'
    'completion:generate shell completion script'
  )

  local -a ds render s3
  ds=(
    '--repo[GitHub repository]:repo'
    '(-p --path)'{-p,--path}'[CSV path in the repository]:path'
    '--resample[one row per day]'
    '--timezone[reference time zone]:tz'
    '--where[keep rows where column=value]:where'
    '--tldr[show tldr page]'
  )
  render=(
    '--fig-dir[image directory]:dir:_directories'
    '--csv-dir[CSV directory]:dir:_directories'
    '--save-fig[save images]'
    '--width[image width]:px'
    '--height[image height]:px'
  )
  s3=(
    '--s3-bucket[upload bucket]:bucket'
    '--s3-prefix[key prefix]:prefix'
    '--s3-endpoint[S3 endpoint]:url'
    '--aws-profile[shared config profile]:profile'
    '--aws-region[AWS region]:region'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'dpcviz commands' cmds
    return
  fi

  case $words[2] in
    dataset)
      _arguments -C $ds
      ;;
    table)
      _arguments -C $ds \
        '--column[columns to print]:columns' \
        '(-c --color)'{-c,--color}'[enable colored text]' \
        '(-f --filter)'{-f,--filter}'[filters to apply]:filters' \
        '(-o --output)'{-o,--output}'[output format]:format:(text json yaml csv)' \
        '(-s --sort)'{-s,--sort}'[sort columns]:columns' \
        '--tail[last N rows]:n' \
        '(-t --titles)'{-t,--titles}'[show titles]'
      ;;
    chart)
      _arguments -C $ds $render $s3 \
        '--column[column to chart]:column' \
        '--name[series name]:name' \
        '--title[chart title]:title' \
        '--views[views to render]:views' \
        '--save-csv[save data]' \
        '--format[image format]:format:(png svg)' \
        '--zero-min[delta axis from zero]' \
        '--window[delta window]:days' \
        '--lookback[growth lookback]:days' \
        '--gf-window[growth window]:days' \
        '--ylim[growth y range]:min,max'
      ;;
    overview)
      _arguments -C $render $s3 \
        '--repo[GitHub repository]:repo' \
        '--timezone[reference time zone]:tz' \
        '*:area:(Italia Abruzzo Basilicata Calabria Campania Emilia-Romagna Lazio Liguria Lombardia Marche Molise Piemonte Puglia Sardegna Sicilia Toscana Umbria Veneto)'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _dpcviz dpcviz
`

// CompletionCommandAction prints the completion script for the requested
// shell, falling back to $SHELL.
func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	if shell == "" {
		shell = GetMeta(cmd).Shell
	}

	w := writer(cmd)
	switch {
	case shell == "bash" || strings.HasSuffix(shell, "/bash"):
		fmt.Fprint(w, bashCompletionScript)
	case shell == "zsh" || strings.HasSuffix(shell, "/zsh"):
		fmt.Fprint(w, zshCompletionScript)
	default:
		return fmt.Errorf("usage: dpcviz completion [bash|zsh]")
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "dpcviz completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}

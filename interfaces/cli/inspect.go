package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List the blocks and connections of the canvas",
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output in JSON format")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	c, cleanup, err := openContainer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	views, err := c.Session.Entities(ctx)
	if err != nil {
		return err
	}
	conns, err := c.Session.Connections(ctx)
	if err != nil {
		return err
	}

	if inspectJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"entities":    views,
			"connections": conns,
		})
	}

	fmt.Printf("%s %s\n\n", brand.Sprint("canvas"), c.Config.CanvasID)

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		style := "solid"
		if v.Dashed {
			style = "dashed"
		}
		rows = append(rows, []string{
			v.ID,
			style,
			fmt.Sprintf("%.0f,%.0f", v.Position.X(), v.Position.Y()),
			strings.Join(v.Tags, " "),
			excerpt(v.Content, 40),
		})
	}
	table([]string{"ID", "STYLE", "POSITION", "TAGS", "CONTENT"}, rows)
	fmt.Println()

	rows = rows[:0]
	for _, conn := range conns {
		rows = append(rows, []string{conn.ID, conn.Source + " → " + conn.Target})
	}
	table([]string{"CONNECTION", "ENDPOINTS"}, rows)

	fmt.Printf("\n%s\n", subtle.Sprintf("%d blocks, %d connections", len(views), len(conns)))
	return nil
}

func excerpt(content string, n int) string {
	text := strings.Join(strings.Fields(plain.PlainText(content)), " ")
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n-1]) + "…"
}

// table prints aligned columns with a subdued header.
func table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		subtle.Printf("  no %s\n", strings.ToLower(headers[0])+"s")
		return
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := len([]rune(cell)); n > widths[i] {
				widths[i] = n
			}
		}
	}
	line := func(cells []string) string {
		var b strings.Builder
		b.WriteString("  ")
		for i, cell := range cells {
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-len([]rune(cell))+2))
		}
		return strings.TrimRight(b.String(), " ")
	}
	subtle.Println(line(headers))
	for _, row := range rows {
		fmt.Println(line(row))
	}
}

package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/tsawler/tabula"
	ttext "github.com/tsawler/tabula/text"
)

// fragmentSource yields the positioned text fragments of one page. Stubbed
// in tests to simulate per-page failures without real PDFs.
type fragmentSource func(path string, page int) ([]ttext.TextFragment, error)

func tabulaFragments(path string, page int) ([]ttext.TextFragment, error) {
	frags, _, err := tabula.Open(path).Pages(page).Fragments()
	return frags, err
}

func tabulaPageCount(path string) (int, error) {
	// Unlike Fragments, PageCount leaves the reader open.
	ext := tabula.Open(path)
	defer ext.Close()
	return ext.PageCount()
}

// extractTables detects tables page by page. A failure on one page is logged
// and skipped; tables from the remaining pages are still returned.
func (p *Pipeline) extractTables(ctx context.Context, path string, logger *slog.Logger) ([]Table, error) {
	pageCount, err := p.pageCount(path)
	if err != nil {
		return nil, fmt.Errorf("table extraction %s: %w", path, err)
	}

	tables := []Table{}
	for page := 1; page <= pageCount; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		frags, err := p.fragments(path, page)
		if err != nil {
			logger.Error("table detection failed, skipping page", "page", page, "error", err)
			continue
		}
		for i, g := range detectTables(frags) {
			tables = append(tables, Table{
				Page:        page,
				Index:       i,
				Headers:     g.headers,
				Rows:        g.rows,
				RowCount:    len(g.rows),
				ColumnCount: len(g.headers),
			})
		}
	}
	logger.Info("table extraction finished", "tables", len(tables), "pages", pageCount)
	return tables, nil
}

type tableGrid struct {
	headers []string
	rows    [][]string
}

// detectTables finds tabular regions by spatial analysis of text fragments:
// fragments are grouped into baselines, runs of multi-cell baselines become
// candidate tables, and cells are assigned to columns clustered from the
// fragments' X positions. A candidate needs at least a header row plus one
// data row and two aligned columns.
func detectTables(frags []ttext.TextFragment) []tableGrid {
	lines := groupLines(frags)

	var grids []tableGrid
	var run [][]ttext.TextFragment
	flush := func() {
		if len(run) >= 2 {
			if g, ok := buildGrid(run); ok {
				grids = append(grids, g)
			}
		}
		run = nil
	}
	for _, line := range lines {
		if len(line) >= 2 {
			run = append(run, line)
		} else {
			flush()
		}
	}
	flush()
	return grids
}

// groupLines clusters fragments sharing a baseline, top to bottom. PDF
// coordinates grow upward, so higher Y comes first.
func groupLines(frags []ttext.TextFragment) [][]ttext.TextFragment {
	if len(frags) == 0 {
		return nil
	}
	sorted := make([]ttext.TextFragment, len(frags))
	copy(sorted, frags)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines [][]ttext.TextFragment
	current := []ttext.TextFragment{sorted[0]}
	lastY := sorted[0].Y
	for _, frag := range sorted[1:] {
		tol := frag.Height * 0.6
		if tol < 2 {
			tol = 2
		}
		if lastY-frag.Y > tol {
			lines = append(lines, sortByX(current))
			current = nil
		}
		current = append(current, frag)
		lastY = frag.Y
	}
	lines = append(lines, sortByX(current))
	return lines
}

func sortByX(line []ttext.TextFragment) []ttext.TextFragment {
	sort.Slice(line, func(i, j int) bool { return line[i].X < line[j].X })
	return line
}

// buildGrid aligns a run of baselines into columns. Column starts are
// clustered from the X positions of all cells in the run.
func buildGrid(run [][]ttext.TextFragment) (tableGrid, bool) {
	var xs []float64
	tol := 0.0
	n := 0
	for _, line := range run {
		for _, frag := range line {
			xs = append(xs, frag.X)
			tol += frag.FontSize
			n++
		}
	}
	if n == 0 {
		return tableGrid{}, false
	}
	tol = tol / float64(n) * 1.5
	if tol < 6 {
		tol = 6
	}

	cols := clusterPositions(xs, tol)
	if len(cols) < 2 {
		return tableGrid{}, false
	}

	cells := make([][]string, len(run))
	for r, line := range run {
		cells[r] = make([]string, len(cols))
		for _, frag := range line {
			c := nearestColumn(cols, frag.X)
			if cells[r][c] != "" {
				cells[r][c] += " "
			}
			cells[r][c] += strings.TrimSpace(frag.Text)
		}
	}

	return tableGrid{headers: cells[0], rows: cells[1:]}, true
}

// clusterPositions reduces sorted X positions to column start positions,
// merging values closer than tol.
func clusterPositions(xs []float64, tol float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	sort.Float64s(xs)
	cols := []float64{xs[0]}
	for _, x := range xs[1:] {
		if x-cols[len(cols)-1] > tol {
			cols = append(cols, x)
		}
	}
	return cols
}

func nearestColumn(cols []float64, x float64) int {
	best := 0
	bestDist := x - cols[0]
	if bestDist < 0 {
		bestDist = -bestDist
	}
	for i, c := range cols[1:] {
		d := x - c
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best = i + 1
			bestDist = d
		}
	}
	return best
}

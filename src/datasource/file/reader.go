// reader.go
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
)

// FileInfo describes a dataset file found on disk.
type FileInfo struct {
	Name     string
	FullPath string
	ModTime  time.Time
}

// EnsureDir creates dirPath when absent and rejects paths occupied by
// a regular file.
func EnsureDir(dirPath string) error {
	if info, err := os.Stat(dirPath); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%s exists but is not a directory", dirPath)
	}
	return os.MkdirAll(dirPath, 0755)
}

// IsDatasetFile reports whether name carries a dataset extension.
func IsDatasetFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// ReadDataset loads a dataset file, dispatching on its extension.
// sheetName only applies to workbooks and may be empty for the first
// sheet.
func ReadDataset(path, sheetName string) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".xlsx":
		return ReadXLSX(path, sheetName)
	default:
		return dataframe.DataFrame{}, fmt.Errorf("unsupported dataset format: %s", filepath.Ext(path))
	}
}

// ReadCSV loads a delimited dataset. Every column is kept as a string
// series; typed columns are produced later during cleaning.
func ReadCSV(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to parse csv file: %w", df.Err)
	}
	return df, nil
}

// ReadXLSX loads one sheet of a workbook into a DataFrame.
func ReadXLSX(path, sheetName string) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenFile(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open xlsx file: %w", err)
	}
	return sheetToDataFrame(xlFile, sheetName)
}

// ReadXLSXBinary reads a workbook already held in memory, as delivered
// by a mail attachment.
func ReadXLSXBinary(data []byte, sheetName string) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open xlsx data: %w", err)
	}
	return sheetToDataFrame(xlFile, sheetName)
}

func sheetToDataFrame(xlFile *xlsx.File, sheetName string) (dataframe.DataFrame, error) {
	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("workbook has no sheets")
	}

	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		named, ok := xlFile.Sheet[sheetName]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("sheet %q not found in workbook", sheetName)
		}
		sheet = named
	}

	df := convertSheetToDataFrame(sheet)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to convert sheet %q: %w", sheet.Name, df.Err)
	}
	return df, nil
}

// convertSheetToDataFrame converts one sheet, taking the first row as
// the header. Short rows are padded so every column has equal length.
func convertSheetToDataFrame(sheet *xlsx.Sheet) dataframe.DataFrame {
	if len(sheet.Rows) < 2 {
		return dataframe.New()
	}

	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, cell.Value)
	}

	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, 0, len(sheet.Rows)-1)
	}

	for _, row := range sheet.Rows[1:] {
		for i := range headers {
			value := ""
			if i < len(row.Cells) {
				value = row.Cells[i].Value
			}
			columns[i] = append(columns[i], value)
		}
	}

	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}

	return dataframe.New(seriesList...)
}

// FindLatestDataset returns the newest dataset file in dir whose name
// contains keyword. An empty keyword matches every dataset file.
func FindLatestDataset(dir, keyword string) (*FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var latest *FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !IsDatasetFile(info.Name()) || !strings.Contains(info.Name(), keyword) {
			continue
		}
		if latest == nil || info.ModTime().After(latest.ModTime) {
			latest = &FileInfo{
				Name:     info.Name(),
				FullPath: filepath.Join(dir, info.Name()),
				ModTime:  info.ModTime(),
			}
		}
	}

	if latest == nil {
		return nil, fmt.Errorf("no dataset files matching %q in %s", keyword, dir)
	}
	return latest, nil
}

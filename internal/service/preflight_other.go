//go:build windows

package service

func checkWritable(dir string) error {
	return nil
}
